package handlers_test

import (
	"net/http"
	"testing"

	"github.com/geocoder89/schedulehub/internal/auth"
	"github.com/geocoder89/schedulehub/internal/domain/user"
	"github.com/geocoder89/schedulehub/internal/http/handlers"
	"github.com/geocoder89/schedulehub/internal/repo/memory"
)

func TestPushToken(t *testing.T) {
	store := memory.NewStore()
	u := store.AddUser(user.User{Email: "c@example.com", Role: user.RoleConsumer})

	h := handlers.NewPushTokenHandler(store.Users(), nil)
	caller := auth.Consumer{UserID: u.ID}

	save := setupRouter(http.MethodPost, "/api/user/push-token", caller, h.Save)
	if w := doRequest(save, http.MethodPost, "/api/user/push-token", `{"token":"ExponentPushToken[abc]"}`); w.Code != http.StatusOK {
		t.Fatalf("save: got %d, body=%s", w.Code, w.Body.String())
	}
	if w := doRequest(save, http.MethodPost, "/api/user/push-token", `{"token":""}`); w.Code != http.StatusBadRequest {
		t.Fatalf("empty token: got %d, want 400", w.Code)
	}

	del := setupRouter(http.MethodDelete, "/api/user/push-token", caller, h.Clear)
	if w := doRequest(del, http.MethodDelete, "/api/user/push-token", ""); w.Code != http.StatusNoContent {
		t.Fatalf("clear: got %d", w.Code)
	}

	ghost := setupRouter(http.MethodDelete, "/api/user/push-token", auth.Consumer{UserID: "deleted"}, h.Clear)
	if w := doRequest(ghost, http.MethodDelete, "/api/user/push-token", ""); w.Code != http.StatusNotFound {
		t.Fatalf("deleted account: got %d, want 404", w.Code)
	}
}
