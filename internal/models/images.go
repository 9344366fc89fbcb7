package models

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Image is a stored link to an uploaded picture.
type Image struct {
	Link string `bson:"link" json:"link"`
}

// ImageList decodes image arrays stored either as [{link: "..."}] documents or
// as plain string arrays, so older documents do not fail the whole request.
type ImageList []Image

// UnmarshalBSONValue accepts null, an array of strings or an array of {link}
// documents. Empty links are dropped.
func (l *ImageList) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*l = nil
		return nil
	case bsontype.Array:
		var raw []interface{}
		if err := bson.UnmarshalValue(t, data, &raw); err != nil {
			return err
		}
		out := make(ImageList, 0, len(raw))
		for _, item := range raw {
			switch v := item.(type) {
			case string:
				if link := strings.TrimSpace(v); link != "" {
					out = append(out, Image{Link: link})
				}
			case bson.D:
				for _, e := range v {
					if e.Key != "link" {
						continue
					}
					if link, ok := e.Value.(string); ok && strings.TrimSpace(link) != "" {
						out = append(out, Image{Link: strings.TrimSpace(link)})
					}
				}
			case bson.M:
				if link, ok := v["link"].(string); ok && strings.TrimSpace(link) != "" {
					out = append(out, Image{Link: strings.TrimSpace(link)})
				}
			default:
				return fmt.Errorf("cannot decode %T into Image", item)
			}
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("cannot decode %s into ImageList", t)
	}
}

// MarshalBSONValue always stores the list as an array of {link} documents.
func (l ImageList) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if l == nil {
		return bson.MarshalValue([]Image{})
	}
	return bson.MarshalValue([]Image(l))
}

// NewImageList builds a list from raw links, trimming blanks.
func NewImageList(links []string) ImageList {
	out := make(ImageList, 0, len(links))
	for _, link := range links {
		if trimmed := strings.TrimSpace(link); trimmed != "" {
			out = append(out, Image{Link: trimmed})
		}
	}
	return out
}

// ImagePhase selects which image set of a line item is written.
type ImagePhase string

const (
	PhaseBefore ImagePhase = "before"
	PhaseAfter  ImagePhase = "after"
)

// Field is the bson field of the line item holding the phase's images.
func (p ImagePhase) Field() string {
	switch p {
	case PhaseBefore:
		return "beforeWashingImages"
	case PhaseAfter:
		return "afterWashingImages"
	}
	return ""
}
