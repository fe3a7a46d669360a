package http

import (
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/middleware"
)

// employeeIDFrom returns the employee of the authenticated caller.
func employeeIDFrom(r *http.Request) string {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		return ""
	}
	return claims.EmployeeID
}

// getIntQueryParam gets an int query parameter with a default value
func getIntQueryParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}

func optionalQuery(r *http.Request, key string) *string {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil
	}
	return &val
}
