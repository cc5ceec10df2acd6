package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type twilioMessageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type TwilioSMSGateway struct {
	messages  twilioMessageCreator
	fromPhone string
}

func NewTwilioSMSGateway(accountSID string, authToken string, fromPhone string) *TwilioSMSGateway {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSMSGateway{messages: client.Api, fromPhone: fromPhone}
}

func (g *TwilioSMSGateway) Send(ctx context.Context, phoneNumber string, message string) (SMSReceipt, error) {
	if err := ctx.Err(); err != nil {
		return SMSReceipt{}, err
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(phoneNumber)
	params.SetFrom(g.fromPhone)
	params.SetBody(message)

	resp, err := g.messages.CreateMessage(params)
	if err != nil {
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) {
			return SMSReceipt{}, fmt.Errorf("twilio send failed: %d %s", restErr.Code, restErr.Message)
		}
		return SMSReceipt{}, fmt.Errorf("twilio send failed: %w", err)
	}

	receipt := SMSReceipt{Status: "sent"}
	if resp != nil {
		if resp.Sid != nil {
			receipt.ID = *resp.Sid
		}
		if resp.Status != nil {
			receipt.Status = string(*resp.Status)
		}
	}
	return receipt, nil
}
