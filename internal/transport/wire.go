// Package transport holds the wire format shared by the NATS and HTTP edges:
// the inbound request payloads, their validation, and their conversion into
// engine commands.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"

	"github.com/zjrosen/namebridge/internal/orchestration/command"
	"github.com/zjrosen/namebridge/internal/orchestration/types"
)

// Request kinds carried in Envelope.Type.
const (
	KindRegistration = "registration"
	KindSubdomain    = "subdomain"
)

// RegistrationRequest asks for label.eth. Days defaults to the configured
// registration length.
type RegistrationRequest struct {
	types.Requester
	Label   string `json:"label" validate:"required,max=255"`
	Days    int    `json:"days,omitempty" validate:"omitempty,min=28,max=3650"`
	Testnet bool   `json:"testnet,omitempty"`
}

// SubdomainRequest asks for label.parent.eth to be assigned to Recipient.
type SubdomainRequest struct {
	types.Requester
	Label     string `json:"label" validate:"required,max=255"`
	Parent    string `json:"parent" validate:"required,max=255"`
	Recipient string `json:"recipient" validate:"required,eth_addr"`
	Testnet   bool   `json:"testnet,omitempty"`
}

// ResponseRequest is a confirmation or selection from the signing side.
type ResponseRequest struct {
	RequestID        string `json:"requestId" validate:"required"`
	TxHash           string `json:"txHash,omitempty" validate:"omitempty,hexadecimal,len=66"`
	SelectedOptionID string `json:"selectedOptionId,omitempty"`
}

// Envelope is the message format on the inbound request subject.
type Envelope struct {
	Type         string               `json:"type" validate:"required,oneof=registration subdomain"`
	Registration *RegistrationRequest `json:"registration,omitempty" validate:"required_if=Type registration,omitempty"`
	Subdomain    *SubdomainRequest    `json:"subdomain,omitempty" validate:"required_if=Type subdomain,omitempty"`
}

// Decoder validates wire payloads and turns them into commands.
type Decoder struct {
	validate        *validator.Validate
	defaultDuration time.Duration
}

// NewDecoder creates a Decoder. defaultDuration applies to registration
// requests that name no length.
func NewDecoder(defaultDuration time.Duration) *Decoder {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json names so errors match what the client sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return &Decoder{validate: v, defaultDuration: defaultDuration}
}

// Validate checks s against its struct tags. Failures come back as a
// types.ValidationError naming the first offending field.
func (d *Decoder) Validate(s any) error {
	err := d.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return types.Invalid(fe.Field(), "failed %q check", describeTag(fe))
	}
	return fmt.Errorf("validating request: %w", err)
}

func describeTag(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// Registration converts a validated registration request.
func (d *Decoder) Registration(r RegistrationRequest) (*command.RequestRegistrationCommand, error) {
	if err := d.Validate(r); err != nil {
		return nil, err
	}
	duration := d.defaultDuration
	if r.Days > 0 {
		duration = time.Duration(r.Days) * 24 * time.Hour
	}
	cmd := command.NewRequestRegistrationCommand(command.SourceUser, r.Requester, r.Label, duration, r.Testnet)
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// Subdomain converts a validated subdomain request.
func (d *Decoder) Subdomain(r SubdomainRequest) (*command.AssignSubdomainCommand, error) {
	if err := d.Validate(r); err != nil {
		return nil, err
	}
	cmd := command.NewAssignSubdomainCommand(command.SourceUser, r.Requester, r.Label, r.Parent,
		common.HexToAddress(r.Recipient), r.Testnet)
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// Response converts a validated response.
func (d *Decoder) Response(r ResponseRequest) (*command.HandleResponseCommand, error) {
	if err := d.Validate(r); err != nil {
		return nil, err
	}
	resp := command.Response{RequestID: r.RequestID, SelectedOptionID: r.SelectedOptionID}
	if r.TxHash != "" {
		h := common.HexToHash(r.TxHash)
		resp.TxHash = &h
	}
	cmd := command.NewHandleResponseCommand(command.SourceResponse, resp)
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// Envelope decodes one message from the request subject.
func (d *Decoder) Envelope(data []byte) (command.Command, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, types.Invalid("body", "malformed JSON: %v", err)
	}
	if err := d.Validate(env); err != nil {
		return nil, err
	}
	switch env.Type {
	case KindRegistration:
		return d.Registration(*env.Registration)
	default:
		return d.Subdomain(*env.Subdomain)
	}
}

// ResponseMessage decodes one message from the response subject.
func (d *Decoder) ResponseMessage(data []byte) (command.Command, error) {
	var r ResponseRequest
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, types.Invalid("body", "malformed JSON: %v", err)
	}
	return d.Response(r)
}
