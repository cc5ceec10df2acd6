package service

import (
	"context"
	"encoding/json"
	"time"

	"smssignup/internal/entity"
	"smssignup/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type clientIPKey struct{}

// WithClientIP attaches the caller's address so audit entries can record it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func clientIP(ctx context.Context) *string {
	ip, ok := ctx.Value(clientIPKey{}).(string)
	if !ok || ip == "" {
		return nil
	}
	return &ip
}

func logSecurity(
	ctx context.Context,
	logs repository.SecurityLogRepository,
	now time.Time,
	userID *uuid.UUID,
	action entity.SecurityAction,
	metadata map[string]any,
) error {
	if logs == nil {
		return nil
	}
	var payload datatypes.JSON
	if metadata != nil {
		bytes, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		payload = datatypes.JSON(bytes)
	}

	log := &entity.SecurityLog{
		UserID:    userID,
		IPAddress: clientIP(ctx),
		Action:    action,
		Metadata:  payload,
		CreatedAt: now,
	}
	return logs.Log(ctx, log)
}
