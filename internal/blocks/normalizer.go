// Package blocks normalizes an article's ordered content-block stream for
// client rendering.
//
// Bodies are stored as a JSON array of typed blocks. Image blocks arrive in
// several legacy encodings (pre-resolved {url, alt} objects, bare media
// identifiers, or {id} objects) and are rewritten into a single canonical
// shape with an absolute URL. All other block types pass through unchanged.
package blocks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/northpine/newsroom-api/internal/logger"
	"github.com/northpine/newsroom-api/internal/models"
	"github.com/northpine/newsroom-api/internal/urls"
)

const typeImage = "image"

// MediaStore resolves media identifiers found in raw image blocks. Lookups
// are batched: one call per distinct identifier set in a body.
type MediaStore interface {
	LookupMany(ctx context.Context, ids []int64) (map[int64]models.Media, error)
}

// Normalizer rewrites media-bearing blocks into canonical form.
type Normalizer struct {
	media    MediaStore
	resolver *urls.Resolver
	logger   logger.Logger
}

// NewNormalizer creates a block normalizer.
func NewNormalizer(media MediaStore, resolver *urls.Resolver, log logger.Logger) *Normalizer {
	return &Normalizer{
		media:    media,
		resolver: resolver,
		logger:   log,
	}
}

// imageValue is the canonical payload of a normalized image block.
type imageValue struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// imageBlock is the canonical wire form of a normalized image block. The
// block-level id is opaque to this service and preserved verbatim.
type imageBlock struct {
	Type  string          `json:"type"`
	Value imageValue      `json:"value"`
	ID    json.RawMessage `json:"id,omitempty"`
}

// imageSource is the decoded input shape of an image block's value,
// resolved once at normalization time. Exactly one variant is set; the
// zero value means unresolvable.
type imageSource struct {
	resolved   *imageValue
	mediaID    int64
	hasMediaID bool
}

// entry is one classified element of the block stream. A nil image means
// the raw bytes pass through verbatim.
type entry struct {
	raw     json.RawMessage
	image   *imageSource
	blockID json.RawMessage
}

// Normalize rewrites body so every image block carries an absolute URL and
// an alt text. Order is preserved, the walk is top level only (nested
// container blocks are opaque payloads), and the operation is idempotent:
// an already-canonical body comes back unchanged.
//
// A body that is not a JSON array is returned as-is. A missing media row
// degrades that one block to an empty placeholder; only a media store
// failure aborts the call.
func (n *Normalizer) Normalize(ctx context.Context, body json.RawMessage, req urls.Request) (json.RawMessage, error) {
	if len(body) == 0 {
		return json.RawMessage("[]"), nil
	}

	var rawEntries []json.RawMessage
	if err := json.Unmarshal(body, &rawEntries); err != nil {
		return body, nil
	}

	entries := make([]entry, 0, len(rawEntries))
	idSet := make(map[int64]struct{})
	for _, raw := range rawEntries {
		e := classify(raw)
		if e.image != nil && e.image.hasMediaID {
			idSet[e.image.mediaID] = struct{}{}
		}
		entries = append(entries, e)
	}

	media, err := n.lookupMedia(ctx, idSet)
	if err != nil {
		return nil, fmt.Errorf("resolve media blocks: %w", err)
	}

	out := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		if e.image == nil {
			out = append(out, e.raw)
			continue
		}
		out = append(out, n.renderImage(e, media, req))
	}

	normalized, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode normalized body: %w", err)
	}
	return normalized, nil
}

// lookupMedia fetches all referenced media rows in a single batched call.
func (n *Normalizer) lookupMedia(ctx context.Context, idSet map[int64]struct{}) (map[int64]models.Media, error) {
	if len(idSet) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	return n.media.LookupMany(ctx, ids)
}

// renderImage emits the canonical form of one image block.
func (n *Normalizer) renderImage(e entry, media map[int64]models.Media, req urls.Request) json.RawMessage {
	value := imageValue{}

	switch {
	case e.image.resolved != nil:
		value.URL = n.resolver.Resolve(e.image.resolved.URL, req)
		value.Alt = e.image.resolved.Alt

	case e.image.hasMediaID:
		if m, ok := media[e.image.mediaID]; ok {
			value.URL = n.resolver.Resolve(m.FilePath, req)
			value.Alt = m.Title
		} else {
			// Missing image must never break detail rendering.
			n.logger.Debug("image block references unknown media",
				logger.Int64("media_id", e.image.mediaID),
			)
		}
	}

	rendered, err := json.Marshal(imageBlock{
		Type:  typeImage,
		Value: value,
		ID:    e.blockID,
	})
	if err != nil {
		return e.raw
	}
	return rendered
}

// classify decides how one stream element is handled. Entries that are not
// objects, carry no type tag, or are not image blocks pass through
// verbatim.
func classify(raw json.RawMessage) entry {
	e := entry{raw: raw}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return e
	}

	typeRaw, ok := obj["type"]
	if !ok {
		return e
	}
	var blockType string
	if err := json.Unmarshal(typeRaw, &blockType); err != nil || blockType != typeImage {
		return e
	}

	src := decodeImageSource(obj["value"])
	e.image = &src
	e.blockID = obj["id"]
	return e
}

// decodeImageSource resolves the legacy value encodings in precedence
// order: pre-resolved {url, alt}, then {id} object, then bare integer.
func decodeImageSource(value json.RawMessage) imageSource {
	if len(value) == 0 {
		return imageSource{}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(value, &obj); err == nil {
		if urlRaw, ok := obj["url"]; ok {
			v := imageValue{}
			// A null url or alt decays to the empty string.
			_ = json.Unmarshal(urlRaw, &v.URL)
			if altRaw, altOK := obj["alt"]; altOK {
				_ = json.Unmarshal(altRaw, &v.Alt)
			}
			return imageSource{resolved: &v}
		}

		if idRaw, ok := obj["id"]; ok {
			var id int64
			if err := json.Unmarshal(idRaw, &id); err == nil && id != 0 {
				return imageSource{mediaID: id, hasMediaID: true}
			}
		}
		return imageSource{}
	}

	var id int64
	if err := json.Unmarshal(value, &id); err == nil && id != 0 {
		return imageSource{mediaID: id, hasMediaID: true}
	}
	return imageSource{}
}
