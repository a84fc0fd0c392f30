package requestdata

import (
  "context"

  "github.com/google/uuid"
)

type requestDataKeyType struct{}

var requestDataKey = requestDataKeyType{}

type RequestData struct {
  TokenString string
  UserID      uuid.UUID
  UserEmail   string
  UserRole    string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
  return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
  if rd, ok := ctx.Value(requestDataKey).(*RequestData); ok {
    return rd
  }
  return nil
}
