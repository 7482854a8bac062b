package audit

import "time"

// LinkType identifies the kind of hyperlink target.
type LinkType string

// Link target kinds.
const (
	LinkInternal LinkType = "internal"
	LinkExternal LinkType = "external"
	LinkMailto   LinkType = "mailto"
	LinkTel      LinkType = "tel"
)

// LinkPosition identifies where on the page a link was found.
type LinkPosition string

// Link positions.
const (
	PositionNavigation LinkPosition = "navigation"
	PositionContent    LinkPosition = "content"
	PositionFooter     LinkPosition = "footer"
	PositionSidebar    LinkPosition = "sidebar"
	PositionOther      LinkPosition = "other"
)

// Link is a directed edge from a crawled page to a target URL. Links are
// write-once fact records. ToPageID resolves to the crawled page when the
// target is internal and was fetched in the same audit; it is a lookup
// convenience, never an ownership edge, and may become null if the target
// page is removed.
type Link struct {
	ID         string
	TenantID   string
	AuditID    string
	FromPageID string

	ToURL     string
	ToURLHash string
	ToPageID  string

	Type       LinkType
	AnchorText string
	Rel        string
	Nofollow   bool
	Position   LinkPosition

	// TargetStatusCode is the observed status of the target, when known.
	TargetStatusCode int
	// IsBroken holds iff the target returned >= 400 or the fetch failed.
	IsBroken bool

	CreatedAt time.Time
}

// IsInternal reports whether the link stays on the project domain.
func (l *Link) IsInternal() bool { return l.Type == LinkInternal }

// IsExternal reports whether the link leaves the project domain.
func (l *Link) IsExternal() bool { return l.Type == LinkExternal }

// ResourceType identifies the kind of page sub-resource.
type ResourceType string

// Resource kinds.
const (
	ResourceCSS   ResourceType = "css"
	ResourceJS    ResourceType = "js"
	ResourceImage ResourceType = "image"
	ResourceFont  ResourceType = "font"
	ResourceVideo ResourceType = "video"
	ResourceOther ResourceType = "other"
)

// Resource is a page sub-resource (image, stylesheet, script) discovered
// during the crawl. Same write-once and cascade semantics as Link.
type Resource struct {
	ID       string
	TenantID string
	AuditID  string
	PageID   string

	URL     string
	URLHash string
	Type    ResourceType

	StatusCode int
	SizeBytes  int
	LoadTimeMS int

	// Alt and HasDimensions are populated for images only.
	Alt           string
	HasDimensions bool
	IsBroken      bool

	CreatedAt time.Time
}

// IsImage reports whether the resource is an image.
func (r *Resource) IsImage() bool { return r.Type == ResourceImage }
