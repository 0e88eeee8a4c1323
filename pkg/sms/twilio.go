package sms

import (
	"context"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

type TwilioProvider struct {
	client     *twilio.RestClient
	fromNumber string
}

func NewTwilioProvider(accountSID, authToken, fromNumber string) *TwilioProvider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioProvider{
		client:     client,
		fromNumber: fromNumber,
	}
}

func (t *TwilioProvider) SendSMS(ctx context.Context, request *SMSRequest) (*SMSResponse, error) {
	params := &api.CreateMessageParams{}
	params.SetTo(request.To)
	params.SetFrom(t.getFromNumber(request.From))
	params.SetBody(request.Message)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return &SMSResponse{
			Status: "failed",
			Error:  err.Error(),
		}, err
	}

	response := &SMSResponse{Status: "queued"}
	if resp.Sid != nil {
		response.MessageID = *resp.Sid
	}
	if resp.Status != nil {
		response.Status = *resp.Status
	}
	return response, nil
}

func (t *TwilioProvider) getFromNumber(from string) string {
	if from != "" {
		return from
	}
	return t.fromNumber
}
