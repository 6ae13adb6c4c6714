package context

import "context"

type ContextKey string

var (
	RequestIDKey       = ContextKey("X-Request-Id")
	MethodKey          = ContextKey("X-Method")
	RouteKey           = ContextKey("X-Route")
	RemoteIPKey        = ContextKey("X-Remote-Ip")
	ConfigurationIDKey = ContextKey("X-Configuration-Id")
)

func get(ctx context.Context, key ContextKey) string {
	value, ok := ctx.Value(key).(string)
	if !ok {
		return ""
	}
	return value
}

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	return get(ctx, RequestIDKey)
}

func SetMethod(ctx context.Context, method string) context.Context {
	return context.WithValue(ctx, MethodKey, method)
}

func GetMethod(ctx context.Context) string {
	return get(ctx, MethodKey)
}

func SetRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, RouteKey, route)
}

func GetRoute(ctx context.Context) string {
	return get(ctx, RouteKey)
}

func SetRemoteIP(ctx context.Context, remoteIP string) context.Context {
	return context.WithValue(ctx, RemoteIPKey, remoteIP)
}

func GetRemoteIP(ctx context.Context) string {
	return get(ctx, RemoteIPKey)
}

// SetConfigurationID tags ctx with the matching configuration being worked on
func SetConfigurationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ConfigurationIDKey, id)
}

func GetConfigurationID(ctx context.Context) string {
	return get(ctx, ConfigurationIDKey)
}

// Fields returns the request values stored on ctx as log fields
func Fields(ctx context.Context) map[string]any {
	fields := map[string]any{}
	for _, key := range []ContextKey{RequestIDKey, MethodKey, RouteKey, RemoteIPKey, ConfigurationIDKey} {
		if v := get(ctx, key); v != "" {
			fields[string(key)] = v
		}
	}
	return fields
}
