package command

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zjrosen/namebridge/internal/orchestration/types"
)

// Response is a confirmation or selection event from the signing
// collaborator. A transaction response carries TxHash on success and nothing
// on decline; a form response carries SelectedOptionID.
type Response struct {
	RequestID        string       `json:"requestId" validate:"required"`
	TxHash           *common.Hash `json:"txHash,omitempty"`
	SelectedOptionID string       `json:"selectedOptionId,omitempty"`
}

// Succeeded reports whether a transaction response carries a finalized hash.
func (r Response) Succeeded() bool {
	return r.TxHash != nil && *r.TxHash != (common.Hash{})
}

// HandleResponseCommand is the single entry point for every asynchronous
// response. The handler decides which saga it belongs to.
type HandleResponseCommand struct {
	*BaseCommand
	Response Response
}

// NewHandleResponseCommand creates a new HandleResponseCommand.
func NewHandleResponseCommand(source CommandSource, resp Response) *HandleResponseCommand {
	base := NewBaseCommand(CmdHandleResponse, source)
	return &HandleResponseCommand{
		BaseCommand: &base,
		Response:    resp,
	}
}

// Validate only requires a request id; foreign ids are ignored later, not rejected.
func (c *HandleResponseCommand) Validate() error {
	if c.Response.RequestID == "" {
		return types.Invalid("requestId", "is required")
	}
	return nil
}

// ContentHash makes a redelivered response a duplicate of the first.
func (c *HandleResponseCommand) ContentHash() string {
	tx := ""
	if c.Response.TxHash != nil {
		tx = c.Response.TxHash.Hex()
	}
	return c.Response.RequestID + "|" + tx + "|" + c.Response.SelectedOptionID
}

func (c *HandleResponseCommand) String() string {
	return fmt.Sprintf("HandleResponse{id=%s, ok=%t, option=%q}", c.Response.RequestID, c.Response.Succeeded(), c.Response.SelectedOptionID)
}
