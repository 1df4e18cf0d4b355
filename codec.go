package restone

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"mime"
	"net/url"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// Decoder turns raw request body bytes into a structured value.
type Decoder interface {
	Decode(data []byte) (any, error)
}

// DecoderFunc allows casting a function to an implementation of [Decoder].
type DecoderFunc func(data []byte) (any, error)

func (f DecoderFunc) Decode(data []byte) (any, error) { return f(data) }

// Encoder turns a response envelope into bytes plus the content type to declare for
// them. Encoders return [*Error] values for envelopes they cannot render.
type Encoder interface {
	ContentType() string
	Encode(v any) ([]byte, error)
}

// Registry maps media types to body decoders and response encoders. Matching is
// case-insensitive and tolerant of media type parameters, so a request declaring
// "Application/JSON; charset=utf-8" finds the decoder registered for
// "application/json". Encoding falls back to the default encoder when nothing in the
// Accept header matches.
type Registry struct {
	decoders   map[string]Decoder
	encoders   map[string]Encoder
	defaultEnc string
}

// NewRegistry inits a registry preloaded with the built-in codecs: JSON and
// form-urlencoded decoders, and JSON (the default) and CSV encoders.
func NewRegistry() *Registry {
	reg := &Registry{
		decoders: make(map[string]Decoder),
		encoders: make(map[string]Encoder),
	}

	reg.RegisterDecoder("application/json", DecoderFunc(decodeJSON))
	reg.RegisterDecoder("application/x-www-form-urlencoded", DecoderFunc(decodeForm))
	reg.RegisterEncoder(JSONEncoder{})
	reg.RegisterEncoder(CSVEncoder{})
	reg.defaultEnc = "application/json"

	return reg
}

// RegisterDecoder registers 'dec' for the given media type, replacing any previous
// registration.
func (reg *Registry) RegisterDecoder(mediaType string, dec Decoder) {
	reg.decoders[normalizeMediaType(mediaType)] = dec
}

// RegisterEncoder registers 'enc' under its declared content type.
func (reg *Registry) RegisterEncoder(enc Encoder) {
	reg.encoders[normalizeMediaType(enc.ContentType())] = enc
}

// SetDefaultEncoder changes which media type serves as the fallback. It panics when no
// encoder is registered for it, this is a configuration-time mistake.
func (reg *Registry) SetDefaultEncoder(mediaType string) {
	norm := normalizeMediaType(mediaType)
	if _, ok := reg.encoders[norm]; !ok {
		panic(fmt.Sprintf("restone: no encoder registered for default %q", mediaType))
	}

	reg.defaultEnc = norm
}

// DecoderFor returns the decoder for the declared content type, false when the type is
// empty or nothing matches.
func (reg *Registry) DecoderFor(contentType string) (Decoder, bool) {
	norm := normalizeMediaType(contentType)
	if norm == "" {
		return nil, false
	}

	dec, ok := reg.decoders[norm]
	return dec, ok
}

// EncoderFor negotiates the response encoder from an Accept header. The declared types
// are tried in listed order; the default encoder serves when none match or no header
// was supplied.
func (reg *Registry) EncoderFor(accept string) Encoder {
	for _, candidate := range strings.Split(accept, ",") {
		if enc, ok := reg.encoders[normalizeMediaType(candidate)]; ok {
			return enc
		}
	}

	return reg.encoders[reg.defaultEnc]
}

// normalizeMediaType lower-cases and strips parameters such as charset and q-values.
// Unparsable types normalize to their trimmed lower-case form so lookups simply miss.
func normalizeMediaType(mediaType string) string {
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		return ""
	}

	parsed, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return strings.ToLower(mediaType)
	}

	return parsed
}

func decodeJSON(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal json body")
	}

	return v, nil
}

// decodeForm parses a form-urlencoded body into a flat map, keeping the first value of
// each repeated key.
func decodeForm(data []byte) (any, error) {
	vals, err := url.ParseQuery(string(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse form body")
	}

	body := make(map[string]any, len(vals))
	for key, vv := range vals {
		if len(vv) > 0 {
			body[key] = vv[0]
		}
	}

	return body, nil
}

// JSONEncoder renders any envelope as JSON. It is the registry's default.
type JSONEncoder struct{}

func (JSONEncoder) ContentType() string { return "application/json" }

func (JSONEncoder) Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal response")
	}

	return data, nil
}

// CSVEncoder renders a response envelope as tabular CSV. It distinguishes two failure
// modes: an envelope that isn't the canonical [Envelope] shape is Unprocessable (422),
// while a well-formed envelope whose data cannot be laid out as rows is NotAcceptable
// (406).
type CSVEncoder struct{}

func (CSVEncoder) ContentType() string { return "text/csv" }

func (CSVEncoder) Encode(v any) ([]byte, error) {
	env, ok := v.(*Envelope)
	if !ok {
		return nil, NewMessageError(CodeUnprocessableEntity, "payload is not a response envelope")
	}

	rows, err := tabulate(env.Data)
	if err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(nil)
	cw := csv.NewWriter(buf)
	if err := cw.WriteAll(rows); err != nil {
		return nil, errors.Wrap(err, "failed to write csv rows")
	}

	return buf.Bytes(), nil
}

// tabulate lays the envelope data out as a header row plus one row per resource.
func tabulate(data any) ([][]string, error) {
	var items []Resource

	switch d := data.(type) {
	case []Resource:
		items = d
	case Resource:
		items = []Resource{d}
	case []any:
		for _, el := range d {
			m, ok := el.(map[string]any)
			if !ok {
				return nil, NewError(CodeNotAcceptable, errors.New("list elements are not records"))
			}

			items = append(items, m)
		}
	default:
		return nil, NewError(CodeNotAcceptable, errors.Newf("cannot tabulate %T", data))
	}

	columns := lo.Uniq(lo.FlatMap(items, func(it Resource, _ int) []string {
		return lo.Keys(it)
	}))
	sort.Strings(columns)

	rows := [][]string{columns}
	for _, it := range items {
		row := make([]string, 0, len(columns))
		for _, col := range columns {
			val, ok := it[col]
			if !ok || val == nil {
				row = append(row, "")
				continue
			}

			switch val.(type) {
			case Resource, []any, []Resource:
				return nil, NewError(CodeNotAcceptable, errors.Newf("field %q is not scalar", col))
			}

			row = append(row, fmt.Sprintf("%v", val))
		}

		rows = append(rows, row)
	}

	return rows, nil
}
