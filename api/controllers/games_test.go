package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/internal/draws"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/internal/games"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/enums"
	pkgerrors "github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/errors"
)

type stubGameService struct {
	view          *games.GameView
	err           error
	gotWinners    int
	gotPrizePool  int
	recordInvoked bool
}

func (s *stubGameService) FindCurrentGame(ctx context.Context) (*games.GameView, error) {
	return s.view, s.err
}

func (s *stubGameService) GetGame(ctx context.Context, id uuid.UUID) (*games.GameView, error) {
	return s.view, s.err
}

func (s *stubGameService) RecordInPersonResults(ctx context.Context, gameID uuid.UUID, winners, prizePool int) (*games.GameView, error) {
	s.recordInvoked = true
	s.gotWinners = winners
	s.gotPrizePool = prizePool
	return s.view, s.err
}

type stubDrawService struct {
	view       *games.GameView
	result     *draws.SettlementResult
	err        error
	gotNumbers string
	gotAdmin   uuid.UUID
}

func (s *stubDrawService) DrawWinningNumbers(ctx context.Context, gameID uuid.UUID, winningNumbers string, adminID uuid.UUID) (*games.GameView, error) {
	s.gotNumbers = winningNumbers
	s.gotAdmin = adminID
	return s.view, s.err
}

func (s *stubDrawService) Settle(ctx context.Context, gameID, adminID uuid.UUID) (*draws.SettlementResult, error) {
	s.gotAdmin = adminID
	return s.result, s.err
}

func (s *stubDrawService) GetSettlement(ctx context.Context, gameID uuid.UUID) (*draws.SettlementResult, error) {
	return s.result, s.err
}

func TestCurrentGameSuccess(t *testing.T) {
	gameID := uuid.New()
	svc := &stubGameService{view: &games.GameView{
		ID:          gameID,
		Year:        2026,
		WeekNumber:  42,
		BetDeadline: time.Now().Add(time.Hour),
		CanBet:      true,
		State:       enums.GameStateOpen,
	}}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/games/current", nil)
	rec := httptest.NewRecorder()

	CurrentGame(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var view games.GameView
	decodeData(t, rec, &view)
	if view.ID != gameID || !view.CanBet || view.State != enums.GameStateOpen {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestCurrentGameNotFound(t *testing.T) {
	svc := &stubGameService{err: pkgerrors.New(pkgerrors.CodeNotFound, "no bettable game yet")}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/games/current", nil)
	rec := httptest.NewRecorder()

	CurrentGame(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestAdminRecordInPerson(t *testing.T) {
	gameID := uuid.New()
	svc := &stubGameService{view: &games.GameView{ID: gameID}}
	req := newJSONRequest(t, http.MethodPost, "/api/admin/v1/games/"+gameID.String()+"/in-person", map[string]any{
		"inPersonWinners":   0,
		"inPersonPrizePool": 500,
	})
	req = withURLParams(req, map[string]string{"gameId": gameID.String()})
	rec := httptest.NewRecorder()

	AdminRecordInPerson(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.gotWinners != 0 || svc.gotPrizePool != 500 {
		t.Fatalf("unexpected values winners=%d pool=%d", svc.gotWinners, svc.gotPrizePool)
	}
}

func TestAdminRecordInPersonRequiresBothFields(t *testing.T) {
	gameID := uuid.New()
	svc := &stubGameService{}
	req := newJSONRequest(t, http.MethodPost, "/api/admin/v1/games/"+gameID.String()+"/in-person", map[string]any{
		"inPersonWinners": 2,
	})
	req = withURLParams(req, map[string]string{"gameId": gameID.String()})
	rec := httptest.NewRecorder()

	AdminRecordInPerson(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.recordInvoked {
		t.Fatalf("service must not be called")
	}
}

func TestAdminDrawPassesAdminAndNumbers(t *testing.T) {
	gameID, adminID := uuid.New(), uuid.New()
	svc := &stubDrawService{view: &games.GameView{ID: gameID, IsDrawn: true}}
	req := newJSONRequest(t, http.MethodPost, "/api/admin/v1/games/"+gameID.String()+"/draw", map[string]any{
		"winningNumbers": "3,7,11",
	})
	req = asAccount(req, adminID, enums.AccountRoleAdmin)
	req = withURLParams(req, map[string]string{"gameId": gameID.String()})
	rec := httptest.NewRecorder()

	AdminDraw(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.gotNumbers != "3,7,11" || svc.gotAdmin != adminID {
		t.Fatalf("unexpected call numbers=%q admin=%s", svc.gotNumbers, svc.gotAdmin)
	}
}

func TestAdminDrawAlreadyDrawn(t *testing.T) {
	gameID := uuid.New()
	svc := &stubDrawService{err: pkgerrors.New(pkgerrors.CodeAlreadyDrawn, "winning numbers already set")}
	req := newJSONRequest(t, http.MethodPost, "/api/admin/v1/games/"+gameID.String()+"/draw", map[string]any{
		"winningNumbers": "3,7,11",
	})
	req = asAccount(req, uuid.New(), enums.AccountRoleAdmin)
	req = withURLParams(req, map[string]string{"gameId": gameID.String()})
	rec := httptest.NewRecorder()

	AdminDraw(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != string(pkgerrors.CodeAlreadyDrawn) {
		t.Fatalf("expected ALREADY_DRAWN got %s", code)
	}
}

func TestAdminSettleReturnsResult(t *testing.T) {
	gameID, adminID := uuid.New(), uuid.New()
	svc := &stubDrawService{result: &draws.SettlementResult{
		GameID:         gameID,
		WinningNumbers: "3,7,11",
		Revenue:        1000,
		PrizePool:      700,
		DigitalWinners: 2,
		ShareAmount:    350,
		SettledBy:      adminID,
	}}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/games/"+gameID.String()+"/settle", nil)
	req = asAccount(req, adminID, enums.AccountRoleAdmin)
	req = withURLParams(req, map[string]string{"gameId": gameID.String()})
	rec := httptest.NewRecorder()

	AdminSettle(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var result draws.SettlementResult
	decodeData(t, rec, &result)
	if result.PrizePool != 700 || result.ShareAmount != 350 || result.SettledBy != adminID {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestAdminGetSettlementNotDrawn(t *testing.T) {
	gameID := uuid.New()
	svc := &stubDrawService{err: pkgerrors.New(pkgerrors.CodeGameNotDrawn, "game has not been drawn")}
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/games/"+gameID.String()+"/settlement", nil)
	req = withURLParams(req, map[string]string{"gameId": gameID.String()})
	rec := httptest.NewRecorder()

	AdminGetSettlement(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}
