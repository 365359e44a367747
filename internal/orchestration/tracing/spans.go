package tracing

// Span attribute keys.
const (
	AttrCommandID       = "command.id"
	AttrCommandType     = "command.type"
	AttrCommandPriority = "command.priority"
	AttrCommandSource   = "command.source"

	AttrCorrelationKey = "saga.correlation_key"
	AttrSagaKind       = "saga.kind"
	AttrLabel          = "ens.label"
	AttrTestnet        = "saga.testnet"

	AttrActionID   = "action.id"
	AttrActionKind = "action.kind"
	AttrChainID    = "chain.id"
	AttrNoticeCode = "notice.code"
)

// SpanPrefixCommand prefixes the span opened for each processed command.
const SpanPrefixCommand = "command.process."

// Span event names.
const (
	EventFollowUpCreated = "follow_up.created"
	EventActionRequested = "action.requested"
	EventNoticeEmitted   = "notice.emitted"
)
