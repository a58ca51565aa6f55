package ctxutil

import "context"

// key is a typed context key; one instance per carried value type.
type key[T any] struct{}

func with[T any](ctx context.Context, v *T) context.Context {
	return context.WithValue(Default(ctx), key[T]{}, v)
}

func get[T any](ctx context.Context) *T {
	if ctx == nil {
		return nil
	}
	v, _ := ctx.Value(key[T]{}).(*T)
	return v
}

// TraceData identifies the request in logs and error bodies.
type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context { return with(ctx, td) }

func GetTraceData(ctx context.Context) *TraceData { return get[TraceData](ctx) }

// RequestData carries the verified caller of an HTTP request. It is read by
// handlers and passed on explicitly; services never look it up themselves.
type RequestData struct {
	Principal string
	Token     string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context { return with(ctx, rd) }

func GetRequestData(ctx context.Context) *RequestData { return get[RequestData](ctx) }
