package domain

// AssetKind distinguishes what an uploaded object is used for. Each kind has
// its own upload policy.
type AssetKind string

const (
	AssetKindGuestPhoto AssetKind = "guest_photo"
	AssetKindLogo       AssetKind = "logo"
	AssetKindFavicon    AssetKind = "favicon"
	AssetKindCover      AssetKind = "cover"
)

// BrandingKinds are the asset kinds organizers upload for event theming.
var BrandingKinds = map[AssetKind]struct{}{
	AssetKindLogo:    {},
	AssetKindFavicon: {},
	AssetKindCover:   {},
}

// AssetPolicy is the allow-list and size ceiling applied to one asset kind.
type AssetPolicy struct {
	AllowedContentTypes map[string]struct{}
	MaxBytes            int64
}

// Allows reports whether contentType is on the policy's allow-list.
func (p AssetPolicy) Allows(contentType string) bool {
	_, ok := p.AllowedContentTypes[contentType]
	return ok
}

// ContentTypes builds an allow-list set.
func ContentTypes(types ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}

// Content types accepted per asset kind.
var (
	GuestPhotoContentTypes = ContentTypes("image/jpeg", "image/png", "image/webp", "image/heic", "image/gif")
	LogoContentTypes       = ContentTypes("image/png", "image/jpeg", "image/svg+xml", "image/webp")
	FaviconContentTypes    = ContentTypes("image/png", "image/x-icon", "image/vnd.microsoft.icon", "image/svg+xml")
	CoverContentTypes      = ContentTypes("image/jpeg", "image/png", "image/webp")
)

// FileExtensions maps content types to the extension used when the submitted
// filename carries none.
var FileExtensions = map[string]string{
	"image/jpeg":               ".jpg",
	"image/png":                ".png",
	"image/webp":               ".webp",
	"image/heic":               ".heic",
	"image/gif":                ".gif",
	"image/svg+xml":            ".svg",
	"image/x-icon":             ".ico",
	"image/vnd.microsoft.icon": ".ico",
}

// UserRole is the role claim of an organizer's access token.
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleOrganizer UserRole = "organizer"
	RoleViewer    UserRole = "viewer"
)
