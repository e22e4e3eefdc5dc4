package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/phrazzld/scry-studygen/internal/domain"
	"google.golang.org/genai"
)

// mapError translates a GenerateContent failure into the domain taxonomy.
// ctx is the caller's context: when it is done the context error is
// returned so a cancelled call is not mistaken for a transport failure.
func mapError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("gemini request cancelled: %w", ctxErr)
	}

	if code, msg, ok := apiError(err); ok {
		if code == http.StatusTooManyRequests {
			return fmt.Errorf("%w: status %d: %s", domain.ErrRateLimit, code, msg)
		}
		return fmt.Errorf("%w: status %d: %s", domain.ErrService, code, msg)
	}

	// the per-call timeout fired while the caller is still waiting
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out", domain.ErrNetwork)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}

	return fmt.Errorf("%w: %v", domain.ErrService, err)
}

func apiError(err error) (int, string, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Message, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Message, true
	}
	return 0, "", false
}
