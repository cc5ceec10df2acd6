package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeMessageCreator struct {
	params *twilioApi.CreateMessageParams
	resp   *twilioApi.ApiV2010Message
	err    error
}

func (f *fakeMessageCreator) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = params
	return f.resp, f.err
}

func TestTwilioSMSGatewaySend(t *testing.T) {
	sid := "SM0123"
	creator := &fakeMessageCreator{resp: &twilioApi.ApiV2010Message{Sid: &sid}}
	gateway := &TwilioSMSGateway{messages: creator, fromPhone: "+15550000000"}

	receipt, err := gateway.Send(context.Background(), "+15551234567", "Your code is 123456")
	require.NoError(t, err)
	assert.Equal(t, "SM0123", receipt.ID)
	assert.Equal(t, "sent", receipt.Status)

	require.NotNil(t, creator.params)
	assert.Equal(t, "+15551234567", *creator.params.To)
	assert.Equal(t, "+15550000000", *creator.params.From)
	assert.Equal(t, "Your code is 123456", *creator.params.Body)
}

func TestTwilioSMSGatewayErrors(t *testing.T) {
	creator := &fakeMessageCreator{err: &twilioclient.TwilioRestError{Code: 21211, Message: "invalid To number", Status: 400}}
	gateway := &TwilioSMSGateway{messages: creator, fromPhone: "+15550000000"}

	_, err := gateway.Send(context.Background(), "+1", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "21211")

	creator.err = errors.New("dial tcp: timeout")
	_, err = gateway.Send(context.Background(), "+15551234567", "hello")
	assert.ErrorContains(t, err, "timeout")
}

func TestLogSMSGateway(t *testing.T) {
	logger, hook := newNullLogger()
	gateway := LogSMSGateway{Logger: logger}

	receipt, err := gateway.Send(context.Background(), "+15551234567", "Your code is 123456")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(receipt.ID, "log_"))
	assert.Equal(t, "sent", receipt.Status)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "Your code is 123456", entry.Data["message"])
}
