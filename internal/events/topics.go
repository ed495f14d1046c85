package events

// Topic constants for domain events emitted by the back office.
const (
	TopicServiceCreated  = "catalog.service.created"
	TopicServiceUpdated  = "catalog.service.updated"
	TopicServiceDeleted  = "catalog.service.deleted"
	TopicPackageCreated  = "catalog.package.created"
	TopicPackageUpdated  = "catalog.package.updated"
	TopicPackageDeleted  = "catalog.package.deleted"
	TopicOrderMoved      = "ordering.moved"
	TopicQuoteSaved      = "quote.saved"
	TopicVoucherCreated  = "voucher.created"
	TopicVoucherRedeemed = "voucher.redeemed"
)
