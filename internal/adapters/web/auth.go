package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"warehouse-inventory/internal/app"
	"warehouse-inventory/internal/core"
)

type actorKey struct{}

// actorFromContext returns the actor stored in ctx by RequireActor.
func actorFromContext(ctx context.Context) app.Actor {
	v, _ := ctx.Value(actorKey{}).(app.Actor)
	return v
}

// actorClaims is the payload of a signed actor token from the upstream auth layer.
type actorClaims struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

var errNoActor = errors.New("actor is required")

// RequireActor resolves the calling actor and injects it into the request
// context. Without a token secret the actor comes from the trusted
// X-Actor-ID and X-Actor-Role headers; with one, from a bearer token signed
// by the auth layer. X-Warehouse-ID selects the working warehouse: admins may
// pick any, everyone else only their own. Returns 401 if no actor resolves.
func (h *Handler) RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := h.actorIdentity(r)
		if err != nil {
			writeError(w, r, err.Error(), "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		actor, err := h.svc.ResolveActor(r.Context(), userID, role)
		if err != nil {
			if core.KindOf(err) == core.KindAuthorization {
				writeError(w, r, err.Error(), "UNAUTHORIZED", http.StatusUnauthorized)
				return
			}
			h.writeAppError(w, r, err)
			return
		}

		if raw := r.Header.Get("X-Warehouse-ID"); raw != "" {
			wh, err := strconv.Atoi(raw)
			if err != nil || wh <= 0 {
				writeError(w, r, "invalid X-Warehouse-ID header", "BAD_REQUEST", http.StatusBadRequest)
				return
			}
			switch {
			case actor.IsAdmin():
				actor.WarehouseID = wh
			case wh != actor.WarehouseID:
				writeError(w, r, fmt.Sprintf("user %d cannot access warehouse %d", actor.UserID, wh),
					string(core.KindAuthorization), http.StatusForbidden)
				return
			}
		}

		ctx := context.WithValue(r.Context(), actorKey{}, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) actorIdentity(r *http.Request) (int, string, error) {
	if h.tokenSecret == "" {
		raw := r.Header.Get("X-Actor-ID")
		if raw == "" {
			return 0, "", errNoActor
		}
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			return 0, "", errors.New("invalid X-Actor-ID header")
		}
		return id, r.Header.Get("X-Actor-Role"), nil
	}

	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return 0, "", errNoActor
	}
	claims := &actorClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(h.tokenSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, "", errors.New("invalid or expired token")
	}
	return claims.UserID, claims.Role, nil
}
