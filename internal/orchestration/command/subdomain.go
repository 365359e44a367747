package command

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zjrosen/namebridge/internal/ens"
	"github.com/zjrosen/namebridge/internal/orchestration/types"
)

// AssignSubdomainCommand creates label.parent.eth owned by Recipient. The
// requester must control the parent name through one of their linked wallets.
type AssignSubdomainCommand struct {
	*BaseCommand
	Requester types.Requester
	Label     string
	Parent    string // second-level label, without ".eth"
	Recipient common.Address
	Testnet   bool
}

// NewAssignSubdomainCommand normalizes both labels.
func NewAssignSubdomainCommand(source CommandSource, req types.Requester, label, parent string, recipient common.Address, testnet bool) *AssignSubdomainCommand {
	base := NewBaseCommand(CmdAssignSubdomain, source)
	return &AssignSubdomainCommand{
		BaseCommand: &base,
		Requester:   req,
		Label:       ens.NormalizeLabel(label),
		Parent:      ens.NormalizeLabel(parent),
		Recipient:   recipient,
		Testnet:     testnet,
	}
}

// Validate checks both labels and the recipient.
func (c *AssignSubdomainCommand) Validate() error {
	if err := c.Requester.Validate(); err != nil {
		return err
	}
	if err := ens.ValidateLabel(c.Label, 1); err != nil {
		return types.Invalid("label", "%v", err)
	}
	if _, err := ens.ParentLabel(c.Parent); err != nil {
		return types.Invalid("parent", "%v", err)
	}
	if c.Recipient == (common.Address{}) {
		return types.Invalid("recipient", "is required")
	}
	return nil
}

// FullName is label.parent.eth.
func (c *AssignSubdomainCommand) FullName() string {
	return c.Label + "." + ens.DisplayName(c.Parent)
}

func (c *AssignSubdomainCommand) String() string {
	return fmt.Sprintf("AssignSubdomain{name=%s, recipient=%s}", c.FullName(), c.Recipient.Hex())
}
