package ctxutil

import "context"

type traceDataKey struct{}

type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	val := ctx.Value(traceDataKey{})
	if td, ok := val.(*TraceData); ok {
		return td
	}
	return nil
}

type authDataKey struct{}

// AuthData carries the verified identity of the caller when bearer auth is enabled.
type AuthData struct {
	Subject string
	Roles   []string
}

// HasRole reports whether the caller's token carries role.
func (ad *AuthData) HasRole(role string) bool {
	if ad == nil || role == "" {
		return false
	}
	for _, r := range ad.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func WithAuthData(ctx context.Context, ad *AuthData) context.Context {
	return context.WithValue(ctx, authDataKey{}, ad)
}

func GetAuthData(ctx context.Context) *AuthData {
	if ad, ok := ctx.Value(authDataKey{}).(*AuthData); ok {
		return ad
	}
	return nil
}
