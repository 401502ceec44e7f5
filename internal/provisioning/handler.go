package provisioning

import (
	"context"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// SignupFromEvent extracts the identity fields of a post-confirmation
// trigger. Username falls back to the subject when the pool omits it.
func SignupFromEvent(event events.CognitoEventUserPoolsPostConfirmation) Signup {
	attrs := event.Request.UserAttributes
	s := Signup{
		Subject:    strings.TrimSpace(attrs["sub"]),
		Username:   strings.TrimSpace(event.UserName),
		Email:      strings.TrimSpace(attrs["email"]),
		UserPoolID: event.UserPoolID,
	}
	if phone := strings.TrimSpace(attrs["phone_number"]); phone != "" {
		s.PhoneNumber = &phone
	}
	if s.Username == "" {
		s.Username = s.Subject
	}
	return s
}

// HandlePostConfirmation provisions the confirmed user and always hands the
// event back unchanged so signup is never blocked by a provisioning failure.
func (p *Provisioner) HandlePostConfirmation(ctx context.Context, event events.CognitoEventUserPoolsPostConfirmation) (events.CognitoEventUserPoolsPostConfirmation, error) {
	ctx = p.logg.WithFields(ctx, map[string]any{
		"trigger_source": event.TriggerSource,
		"user_pool_id":   event.UserPoolID,
	})
	signup := SignupFromEvent(event)
	if signup.Subject == "" {
		p.logg.Warn(ctx, "provisioning.missing_subject")
		return event, nil
	}
	p.Provision(ctx, signup)
	return event, nil
}
