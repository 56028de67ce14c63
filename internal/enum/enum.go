package enum

// ── Order lifecycle ──

const (
	OrderTypeDineIn   = "dine-in"
	OrderTypeTakeaway = "takeaway"
)

const (
	TableStatusAvailable = "available"
	TableStatusOccupied  = "occupied"
)

// ── Print configuration labels ──

const (
	PaperSize58  = "58mm"
	PaperSize80  = "80mm"
	PaperSize112 = "112mm"
)

const (
	KOTFormatCompact  = "compact"
	KOTFormatDetailed = "detailed"
	KOTFormatGrouped  = "grouped"
)

const (
	BillFormatStandard = "standard"
	BillFormatDetailed = "detailed"
	BillFormatCompact  = "compact"
)
