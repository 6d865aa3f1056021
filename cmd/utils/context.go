package utils

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const PatientIDKey contextKey = "patientID"

// GetPatientIDFromContext returns the authenticated patient id injected by
// AuthMiddleware, or an error when the request carries no identity.
func GetPatientIDFromContext(r *http.Request) (uint, error) {
	patientID, ok := r.Context().Value(PatientIDKey).(uint)
	if !ok {
		return 0, errors.New("patient ID not found in context")
	}
	return patientID, nil
}

// AuthMiddleware validates the bearer token and stores the patient id on the
// request context. Requests without a valid token are rejected with 401.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.Replace(authHeader, "Bearer ", "", 1)

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(os.Getenv("SECRET_KEY")), nil
		})

		if err != nil || !token.Valid {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		patientID, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil {
			http.Error(w, "Invalid patient ID in token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), PatientIDKey, uint(patientID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
