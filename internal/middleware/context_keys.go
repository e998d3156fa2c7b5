package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/storelens/multicurrency/internal/core/domain"
)

// requestStateKey is the key used to store the per-request currency
// resolution state in the Gin context.
const requestStateKey = contextKey("currencyRequestState")

// GetRequestState retrieves the currency resolution state from the Gin
// context. It returns the state and a boolean indicating if it was found.
func GetRequestState(c *gin.Context) (*domain.RequestState, bool) {
	stateVal, exists := c.Get(string(requestStateKey))
	if !exists {
		return nil, false
	}

	state, ok := stateVal.(*domain.RequestState)
	if !ok {
		// Should not happen if the selection middleware sets it correctly
		return nil, false
	}

	return state, true
}
