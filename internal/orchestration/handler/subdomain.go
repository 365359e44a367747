package handler

import (
	"context"
	"fmt"
	"math/big"
	"slices"

	"github.com/zjrosen/namebridge/internal/correlation"
	"github.com/zjrosen/namebridge/internal/ens"
	"github.com/zjrosen/namebridge/internal/flags"
	"github.com/zjrosen/namebridge/internal/log"
	"github.com/zjrosen/namebridge/internal/orchestration/command"
	"github.com/zjrosen/namebridge/internal/orchestration/events"
	"github.com/zjrosen/namebridge/internal/orchestration/repository"
)

// AssignSubdomainHandler handles CmdAssignSubdomain. The parent's registry
// owner must be one of the requester's linked wallets; that wallet signs
// setSubnodeRecord for the recipient.
type AssignSubdomainHandler struct {
	deps *Deps
}

// NewAssignSubdomainHandler creates a new AssignSubdomainHandler.
func NewAssignSubdomainHandler(deps *Deps) *AssignSubdomainHandler {
	return &AssignSubdomainHandler{deps: deps}
}

// Handle processes an AssignSubdomainCommand.
func (h *AssignSubdomainHandler) Handle(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
	assign, err := asType[*command.AssignSubdomainCommand](cmd)
	if err != nil {
		return nil, err
	}
	if err := validate(assign); err != nil {
		return nil, err
	}
	who := assign.Requester
	full := assign.FullName()
	parent := ens.DisplayName(assign.Parent)

	if assign.Testnet && !h.deps.Flags.Enabled(flags.FlagTestnetCommands) {
		return noticeResult("", events.NewNotice(who, events.NoticeTestnetDisabled,
			"Testnet commands are disabled.").WithName(full)), nil
	}
	net := h.deps.Networks.For(assign.Testnet)

	owner, err := h.deps.Chain.Names.Owner(ctx, net, parent)
	if err != nil {
		return noticeResult("", transientNotice(who, "look up the owner of "+parent, err).WithName(full)), nil
	}
	linked, err := h.deps.Chain.Wallets.LinkedWallets(ctx, who.UserID)
	if err != nil {
		return noticeResult("", transientNotice(who, "load your linked wallets", err).WithName(full)), nil
	}
	if !slices.Contains(linked, owner) {
		return noticeResult("", events.NewNotice(who, events.NoticeNotParentOwner,
			fmt.Sprintf("None of your linked wallets owns %s.", parent)).WithName(full)), nil
	}

	data, err := ens.SetSubnodeRecordCalldata(parent, assign.Label, assign.Recipient, net.PublicResolver)
	if err != nil {
		return nil, fmt.Errorf("encode setSubnodeRecord: %w", err)
	}

	now := h.deps.now()
	key := correlation.Stamped(correlation.KindSubdomain, who.ChannelID, who.UserID, full, now)
	h.deps.Stores.Subdomains.Put(ctx, key, &repository.SubdomainAssignment{
		ID:          repository.NewGeneration(),
		Requester:   who,
		Label:       assign.Label,
		Parent:      assign.Parent,
		FullName:    full,
		Recipient:   assign.Recipient,
		OwnerWallet: owner,
		Network:     net,
		CreatedAt:   now,
	})
	log.Info(log.CatSaga, "subdomain requested", "key", key.String(), "owner", owner.Hex(), "recipient", assign.Recipient.Hex())

	action := events.Transaction(key.String(), fmt.Sprintf("Create %s", full), who,
		net.DestinationChainID, net.Registry, new(big.Int), data, &owner)
	notice := events.NewNotice(who, events.NoticeInfo,
		fmt.Sprintf("Approve the creation of %s for %s.", full, assign.Recipient.Hex())).WithKey(key.String()).WithName(full)
	return noticeResult(key.String(), notice, action), nil
}

// subdomainRoute ends an assignment; the record goes either way.
type subdomainRoute struct {
	deps *Deps
}

func (r subdomainRoute) respond(ctx context.Context, key correlation.Key, resp command.Response) (*command.CommandResult, error) {
	rec, err := r.deps.Stores.Subdomains.Take(ctx, key)
	if err != nil {
		return nil, err
	}
	if !resp.Succeeded() {
		return responseNotice(key, events.NewNotice(rec.Requester, events.NoticeCancelled,
			fmt.Sprintf("%s was not created.", rec.FullName)).WithName(rec.FullName)), nil
	}
	return responseNotice(key, events.NewNotice(rec.Requester, events.NoticeSubdomainAssigned,
		fmt.Sprintf("%s now points to %s.", rec.FullName, rec.Recipient.Hex())).
		WithName(rec.FullName).WithTx(resp.TxHash.Hex())), nil
}
