package resources

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/collection-listing/internal/pkg/resourceurl"
)

// Property names read by the aggregation resolver.
const (
	PropAggregation               = "aggregation"
	PropManuallyApproved          = "manually-approve-resources"
	PropDisplayAggregation        = "display-aggregation"
	PropDisplayManuallyApproved   = "display-manually-approved"
	PropRecursiveListing          = "recursive-listing"
	ResourceTypeCollection        = "collection"
	ResourceTypeArticleListing    = "article-listing"
	ResourceTypeEventListing      = "event-listing"
	ResourceTypeFile              = "file"
	ResourceTypeStructuredArticle = "structured-article"
)

// Resource is an indexed resource of a content host. Rows for remote hosts
// come from the shared multi-host index; ExternalURL then overrides the
// canonical location.
type Resource struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Host           string         `gorm:"column:host;not null;uniqueIndex:idx_resource_host_uri" json:"host"`
	URI            string         `gorm:"column:uri;not null;uniqueIndex:idx_resource_host_uri;index" json:"uri"`
	ResourceType   string         `gorm:"column:resource_type;not null;default:'file'" json:"resource_type"`
	Title          string         `gorm:"column:title" json:"title"`
	ExternalURL    string         `gorm:"column:external_url" json:"external_url,omitempty"`
	ReadRestricted bool           `gorm:"column:read_restricted;not null;default:false" json:"read_restricted"`
	Properties     datatypes.JSON `gorm:"column:properties" json:"properties,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Resource) TableName() string { return "resource" }

func (r *Resource) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// New builds an unsaved resource on host with the given properties.
func New(host resourceurl.URL, uri resourceurl.Path, resourceType string, props map[string]any) *Resource {
	if clean, err := resourceurl.ParsePath(string(uri)); err == nil {
		uri = clean
	}
	r := &Resource{
		Host:         host.HostRoot().String(),
		URI:          uri.String(),
		ResourceType: resourceType,
	}
	r.SetProperties(props)
	return r
}

func (r *Resource) SetProperties(props map[string]any) {
	if len(props) == 0 {
		r.Properties = nil
		return
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return
	}
	r.Properties = datatypes.JSON(raw)
}

// properties decodes on every call so a shared *Resource stays safe for
// concurrent readers.
func (r *Resource) properties() map[string]any {
	out := map[string]any{}
	if len(r.Properties) > 0 {
		_ = json.Unmarshal(r.Properties, &out)
	}
	return out
}

// Strings returns a multi-valued property. A scalar string counts as one value.
func (r *Resource) Strings(name string) []string {
	switch v := r.properties()[name].(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}

func (r *Resource) Property(name string) string {
	if vals := r.Strings(name); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

func (r *Resource) Bool(name string) bool {
	switch v := r.properties()[name].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	}
	return false
}

func (r *Resource) Path() resourceurl.Path {
	p, err := resourceurl.ParsePath(r.URI)
	if err != nil {
		return ""
	}
	return p
}

// CanonicalURL is ExternalURL when set, Host+URI otherwise. A zero URL means
// the row is not addressable.
func (r *Resource) CanonicalURL() resourceurl.URL {
	if ext := strings.TrimSpace(r.ExternalURL); ext != "" {
		if u, err := resourceurl.Parse(ext); err == nil {
			return u
		}
	}
	host, err := resourceurl.Parse(r.Host)
	if err != nil {
		return resourceurl.URL{}
	}
	p := r.Path()
	if p == "" {
		return resourceurl.URL{}
	}
	return host.WithPath(p)
}

func (r *Resource) IsCollection() bool {
	switch r.ResourceType {
	case ResourceTypeCollection, ResourceTypeArticleListing, ResourceTypeEventListing:
		return true
	}
	return false
}
