package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"listinghub/internal/models"
	"listinghub/internal/service"
)

// flexFloat accepts a JSON number or a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	v, err := parseFlexFloat(b)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

func parseFlexFloat(raw []byte) (float64, error) {
	s := strings.TrimSpace(string(raw))
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("expected a number, got %s", raw)
	}
	return v, nil
}

// flexTime accepts RFC 3339 timestamps and plain dates.
type flexTime time.Time

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("expected a timestamp string, got %s", b)
	}
	v, err := parseTime(s)
	if err != nil {
		return err
	}
	*t = flexTime(v)
	return nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			return v.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

type createListingRequest struct {
	Title       string         `json:"title"`
	Description *string        `json:"description"`
	Category    string         `json:"category"`
	Price       *flexFloat     `json:"price"`
	PriceType   string         `json:"price_type"`
	Address     string         `json:"address"`
	Latitude    *flexFloat     `json:"latitude"`
	Longitude   *flexFloat     `json:"longitude"`
	Features    map[string]any `json:"features"`
	ExpiresAt   *flexTime      `json:"expires_at"`
}

func (r createListingRequest) input() service.ListingInput {
	in := service.ListingInput{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		PriceType:   r.PriceType,
		Address:     r.Address,
		Features:    r.Features,
		Price:       (*float64)(r.Price),
		Latitude:    (*float64)(r.Latitude),
		Longitude:   (*float64)(r.Longitude),
	}
	if r.ExpiresAt != nil {
		t := time.Time(*r.ExpiresAt)
		in.ExpiresAt = &t
	}
	return in
}

func decodeCreateListing(body io.Reader) (service.ListingInput, error) {
	var req createListingRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil && err != io.EOF {
		return service.ListingInput{}, service.Invalidf("invalid listing body: %s", describeJSONError(err))
	}
	return req.input(), nil
}

var listingPatchFields = []string{
	"title", "description", "category", "price", "price_type",
	"address", "latitude", "longitude", "features", "expires_at",
}

// decodeListingPatch turns a raw PATCH body into an allow-listed patch.
// created_by is only accepted when allowOwner is set.
func decodeListingPatch(body io.Reader, allowOwner bool) (models.ListingPatch, error) {
	fields, err := decodeObject(body)
	if err != nil {
		return models.ListingPatch{}, err
	}

	allowed := append([]string(nil), listingPatchFields...)
	if allowOwner {
		allowed = append(allowed, "created_by")
	}
	if err := rejectUnknown(fields, allowed); err != nil {
		return models.ListingPatch{}, err
	}

	var patch models.ListingPatch
	for key, raw := range fields {
		isNull := bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
		if isNull && key != "expires_at" {
			return models.ListingPatch{}, service.Invalidf("%s must not be null", key)
		}

		var err error
		switch key {
		case "title":
			patch.Title, err = decodeString(raw)
		case "description":
			patch.Description, err = decodeString(raw)
		case "category":
			patch.Category, err = decodeString(raw)
		case "price_type":
			patch.PriceType, err = decodeString(raw)
		case "address":
			patch.Address, err = decodeString(raw)
		case "price":
			patch.Price, err = decodeFloat(raw)
		case "latitude":
			patch.Latitude, err = decodeFloat(raw)
		case "longitude":
			patch.Longitude, err = decodeFloat(raw)
		case "features":
			err = json.Unmarshal(raw, &patch.Features)
			if err == nil && patch.Features == nil {
				patch.Features = map[string]any{}
			}
		case "expires_at":
			if isNull {
				patch.ClearExpiry = true
				continue
			}
			var t flexTime
			if err = json.Unmarshal(raw, &t); err == nil {
				v := time.Time(t)
				patch.ExpiresAt = &v
			}
		case "created_by":
			var id int64
			id, err = decodeID(raw)
			patch.CreatedBy = &id
		}
		if err != nil {
			return models.ListingPatch{}, service.Invalidf("invalid %s: %s", key, describeJSONError(err))
		}
	}
	return patch, nil
}

var profileFields = []string{"username", "email", "phone", "role"}

func decodeProfileJSON(body io.Reader) (service.ProfileUpdate, error) {
	fields, err := decodeObject(body)
	if err != nil {
		return service.ProfileUpdate{}, err
	}
	var upd service.ProfileUpdate
	if _, ok := fields["role"]; ok {
		upd.RoleRequested = true
		return upd, nil
	}
	if _, ok := fields["profile_image"]; ok {
		return upd, service.Invalidf("profile_image must be uploaded as multipart/form-data")
	}
	if err := rejectUnknown(fields, profileFields); err != nil {
		return upd, err
	}

	for key, raw := range fields {
		v, err := decodeString(raw)
		if err != nil || v == nil {
			return upd, service.Invalidf("%s must be a string", key)
		}
		switch key {
		case "username":
			upd.Username = v
		case "email":
			upd.Email = v
		case "phone":
			upd.Phone = v
		}
	}
	return upd, nil
}

func decodeObject(body io.Reader) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&fields); err != nil {
		if err == io.EOF {
			return map[string]json.RawMessage{}, nil
		}
		return nil, service.Invalidf("request body must be a JSON object: %s", describeJSONError(err))
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	return fields, nil
}

func rejectUnknown(fields map[string]json.RawMessage, allowed []string) error {
	set := make(map[string]struct{}, len(allowed))
	for _, k := range allowed {
		set[k] = struct{}{}
	}
	var unknown []string
	for k := range fields {
		if _, ok := set[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return service.Invalidf("unknown fields: %s", strings.Join(unknown, ", "))
}

func decodeString(raw json.RawMessage) (*string, error) {
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeFloat(raw json.RawMessage) (*float64, error) {
	v, err := parseFlexFloat(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func decodeID(raw json.RawMessage) (int64, error) {
	s := strings.TrimSpace(string(raw))
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("expected a positive integer id, got %s", raw)
	}
	return id, nil
}

func describeJSONError(err error) string {
	switch e := err.(type) {
	case *json.SyntaxError:
		return fmt.Sprintf("malformed JSON at offset %d", e.Offset)
	case *json.UnmarshalTypeError:
		if e.Field != "" {
			return fmt.Sprintf("%s has the wrong type", e.Field)
		}
		return "wrong value type"
	}
	return err.Error()
}
