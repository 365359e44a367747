package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zjrosen/namebridge/internal/correlation"
	"github.com/zjrosen/namebridge/internal/funding"
	"github.com/zjrosen/namebridge/internal/log"
	"github.com/zjrosen/namebridge/internal/orchestration/command"
	"github.com/zjrosen/namebridge/internal/orchestration/events"
	"github.com/zjrosen/namebridge/internal/orchestration/types"
)

// route resumes one saga kind. It returns an error wrapping
// types.ErrRecordNotFound when the key has no live record.
type route interface {
	respond(ctx context.Context, key correlation.Key, resp command.Response) (*command.CommandResult, error)
}

// ResponseResult reports how a response was dispatched.
type ResponseResult struct {
	Key     string
	Kind    string
	Ignored bool
	Outcome events.NoticeCode
}

// ResponseHandler handles CmdHandleResponse, the single entry point for
// transaction confirmations and form selections. The key's kind picks the
// saga; the saga looks its record up by the full key.
//
// Keys of unknown kinds belong to other subsystems on the same stream and
// are ignored. Known keys without a record get an "expired" notice.
type ResponseHandler struct {
	routes map[correlation.Kind]route
}

// NewResponseHandler creates a ResponseHandler with every saga route.
func NewResponseHandler(deps *Deps) *ResponseHandler {
	commit := commitRoute{deps: deps}
	reveal := revealRoute{deps: deps}
	selection := selectionRoute{deps: deps}
	transfer := transferRoute{deps: deps}
	return &ResponseHandler{routes: map[correlation.Kind]route{
		correlation.KindWalletSelect:   selection,
		correlation.KindTestWalletPick: selection,
		correlation.KindCommit:         commit,
		correlation.KindTestCommit:     commit,
		correlation.KindRegister:       reveal,
		correlation.KindTestRegister:   reveal,
		correlation.KindBridgeEOA:      bridgeRoute{deps: deps},
		correlation.KindTransfer:       transfer,
		correlation.KindTestTransfer:   transfer,
		correlation.KindSubdomain:      subdomainRoute{deps: deps},
	}}
}

// Handle processes a HandleResponseCommand.
func (h *ResponseHandler) Handle(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
	respCmd, err := asType[*command.HandleResponseCommand](cmd)
	if err != nil {
		return nil, err
	}
	if err := validate(respCmd); err != nil {
		return nil, err
	}
	resp := respCmd.Response

	key, ok := correlation.Parse(resp.RequestID)
	if !ok {
		log.Debug(log.CatSaga, "foreign response ignored", "request_id", resp.RequestID)
		return SuccessResult(&ResponseResult{Key: resp.RequestID, Ignored: true}), nil
	}
	r, ok := h.routes[key.Kind]
	if !ok {
		return SuccessResult(&ResponseResult{Key: resp.RequestID, Kind: key.Kind.String(), Ignored: true}), nil
	}

	result, err := r.respond(ctx, key, resp)
	if errors.Is(err, types.ErrRecordNotFound) {
		log.Info(log.CatSaga, "response for expired record", "key", key.String())
		who := types.Requester{UserID: key.User, ChannelID: key.Channel}
		return responseNotice(key, events.NewNotice(who, events.NoticeExpired,
			"That request has expired or was already handled. Please start again.")), nil
	}
	return result, err
}

func responseNotice(key correlation.Key, n events.Notice) *command.CommandResult {
	n = n.WithKey(key.String())
	return SuccessWithEvents(&ResponseResult{Key: key.String(), Kind: key.Kind.String(), Outcome: n.Code}, n)
}

// ===========================================================================
// Selection
// ===========================================================================

// selectionRoute consumes a wallet prompt. The chosen wallet is re-read and
// re-evaluated before any transaction is requested, since balances may have
// moved while the prompt was open.
type selectionRoute struct {
	deps *Deps
}

func (r selectionRoute) respond(ctx context.Context, key correlation.Key, resp command.Response) (*command.CommandResult, error) {
	sel, err := r.deps.Stores.Selections.Take(ctx, key)
	if err != nil {
		return nil, err
	}
	who := sel.Requester

	picked, ok := sel.Option(resp.SelectedOptionID)
	if !ok {
		return responseNotice(key, events.NewNotice(who, events.NoticeCancelled,
			"No wallet was selected. Request the name again to start over.")), nil
	}

	addrs := []common.Address{picked.Wallet.Address}
	if picked.FundingSource != nil {
		addrs = append(addrs, picked.FundingSource.Address)
	}
	fresh, err := snapshotWallets(ctx, r.deps.Chain, sel.Network, addrs)
	if err != nil {
		return responseNotice(key, transientNotice(who, "re-check your wallet balance", err)), nil
	}

	cand, ok := funding.Evaluate(fresh[0], sel.Required, sel.Fee, fresh)
	if !ok {
		return responseNotice(key, events.NewNotice(who, events.NoticeInsufficientFunds,
			fmt.Sprintf("%s no longer holds enough to pay for %s.", picked.Wallet.Address.Hex(), sel.Label))), nil
	}
	log.Info(log.CatFunding, "selection rechecked",
		"key", key.String(), "wallet", cand.Wallet.Address.Hex(), "offered", picked.Path.String(), "path", cand.Path.String())

	var next command.Command
	switch cand.Path {
	case funding.PathDirect:
		next = command.NewBeginCommitCommand(command.SourceInternal, who, sel.Label, sel.Duration, sel.Network.Testnet, cand.Wallet.Address)
	case funding.PathBridge:
		next = command.NewBeginBridgeCommand(command.SourceInternal, who, sel.Label, sel.Duration, sel.Network.Testnet, cand.Wallet.Address, sel.Required)
	case funding.PathTransferBridge:
		next = command.NewBeginTransferCommand(command.SourceInternal, who, sel.Label, sel.Duration, sel.Network.Testnet,
			cand.Wallet.Address, cand.FundingSource.Address, cand.TransferAmount, sel.Required)
	}

	result := SuccessResult(&ResponseResult{Key: key.String(), Kind: key.Kind.String()})
	result.FollowUp = []command.Command{next}
	return result, nil
}
