package restone

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// DefaultPageSize is the items-per-page used when an endpoint doesn't configure one.
const DefaultPageSize = 25

// Config describes one endpoint: which verbs it serves, how bodies are cleansed and
// validated, how collections are narrowed, ordered and paged, and what the output
// representation looks like. A Config is normalized and validated once by [New] and is
// immutable afterwards; per-request state never leaks into it.
type Config struct {
	// Methods are the allowed HTTP methods. Normalized to upper-case by [New].
	Methods []string

	// PluralMethods opts in to bulk mutation: a PUT or DELETE listed here may address
	// the whole collection. Without the opt-in such requests are rejected with 405,
	// bulk operations are never implicit.
	PluralMethods []string

	// PostFields and PutFields are the body field allow-lists per mutating method.
	// Unknown fields are silently dropped before validation ever sees them. A nil list
	// allows every field; an empty non-nil list drops them all.
	PostFields []string
	PutFields  []string

	// Filters narrow collection results, in declaration order.
	Filters []Filter

	// Orders maps values of the "order" query parameter to an ordering.
	Orders map[string]LessFunc

	// DefaultPageSize is the fallback items-per-page, see [DefaultPageSize].
	DefaultPageSize int

	// CountTotals enables computing total pages/items in pagination metadata. Counting
	// can be expensive, so it is opt-in.
	CountTotals bool

	// KeyFields are the path parameter names that address a single resource. With
	// MultiKey every present parameter participates in the lookup; otherwise only the
	// first present one does. Which arity is right is a per-deployment choice.
	KeyFields []string
	MultiKey  bool

	// Template is the output representation allow-list, see [Template].
	Template *Template

	// Store is the resource store adapter. A verb served without a store (and without
	// a Get override) responds 501 Not Implemented.
	Store Store

	// Codecs overrides the codec registry, defaults to [NewRegistry].
	Codecs *Registry

	// AuthHook is a no-op extension point run before anything else. It may enrich the
	// request (e.g. resolve a signed parameter into a principal) but must not fail;
	// enrichment that doesn't pan out simply leaves the request as is.
	AuthHook func(r *http.Request) *http.Request

	// Get overrides the store-backed GET action, for endpoints exposing computed or
	// non-resource payloads. A returned [Set] still goes through the collection
	// pipeline.
	Get func(ctx context.Context, r *http.Request) (any, error)

	// ValidateCreate and ValidateUpdate run domain validation per entity, after
	// cleansing. Returning a [*Error] propagates as is; any other error is normalized
	// into a 400 with the catch-all field. Collections validate fail-fast: the first
	// invalid entity aborts the request.
	ValidateCreate func(ctx context.Context, item Resource) error
	ValidateUpdate func(ctx context.Context, merged Resource) error

	// Debug enables the envelope's debug section (store call counts and time spent)
	// and error detail in 500 bodies rendered by [RespondError].
	Debug bool
}

// Endpoint runs the request pipeline for one configured resource endpoint:
//
//	auth hook → method check → (decode → cleanse → validate) → action →
//	paginate → project → finalize side effect → package → encode
//
// Every stage fails fast: the first structured error short-circuits straight to the
// error responder, there are no partial retries and no silent recovery.
type Endpoint struct {
	cfg Config

	methods    map[string]bool
	plural     map[string]bool
	postFields map[string]bool
	putFields  map[string]bool
}

// New validates and normalizes the configuration into a servable endpoint.
func New(cfg Config) (*Endpoint, error) {
	if len(cfg.Methods) == 0 {
		return nil, errors.New("endpoint must allow at least one method")
	}

	known := map[string]bool{
		http.MethodGet: true, http.MethodPost: true,
		http.MethodPut: true, http.MethodDelete: true,
	}

	ep := &Endpoint{
		cfg:     cfg,
		methods: make(map[string]bool, len(cfg.Methods)),
		plural:  make(map[string]bool, len(cfg.PluralMethods)),
	}

	for _, m := range cfg.Methods {
		m = strings.ToUpper(m)
		if !known[m] {
			return nil, errors.Newf("unsupported method %q", m)
		}

		ep.methods[m] = true
	}

	for _, m := range cfg.PluralMethods {
		m = strings.ToUpper(m)
		if m != http.MethodPut && m != http.MethodDelete {
			return nil, errors.Newf("method %q cannot be plural", m)
		}

		ep.plural[m] = true
	}

	for i, f := range cfg.Filters {
		if f.Name == "" || f.Apply == nil {
			return nil, errors.Newf("filter at position %d lacks a name or apply func", i)
		}
	}

	if cfg.PostFields != nil {
		ep.postFields = lo.SliceToMap(cfg.PostFields, func(f string) (string, bool) { return f, true })
	}

	if cfg.PutFields != nil {
		ep.putFields = lo.SliceToMap(cfg.PutFields, func(f string) (string, bool) { return f, true })
	}

	if ep.cfg.DefaultPageSize < 1 {
		ep.cfg.DefaultPageSize = DefaultPageSize
	}

	if ep.cfg.Codecs == nil {
		ep.cfg.Codecs = NewRegistry()
	}

	return ep, nil
}

// MustNew is [New] but panics on configuration errors, for registration-time wiring.
func MustNew(cfg Config) *Endpoint {
	ep, err := New(cfg)
	if err != nil {
		panic("restone: " + err.Error())
	}

	return ep
}

// ServeBareRestone implements [BareHandler] and runs the pipeline.
func (e *Endpoint) ServeBareRestone(w ResponseWriter, r *http.Request) error {
	if e.cfg.AuthHook != nil {
		r = e.cfg.AuthHook(r)
	}

	ctx := r.Context()
	method := strings.ToUpper(r.Method)
	q := r.URL.Query()
	key := e.pathKey(r)

	if err := e.checkMethod(method, key); err != nil {
		return err
	}

	store, meter := e.requestStore()

	var body any
	if method == http.MethodPost || method == http.MethodPut {
		var err error
		if body, err = e.decodeBody(r); err != nil {
			return err
		}

		body = e.cleanse(method, body)
	}

	data, singular, err := e.action(ctx, r, store, method, key, body)
	if err != nil {
		return err
	}

	var meta *Pagination
	if set, ok := data.(Set); ok {
		set = applyFilters(q, set, e.cfg.Filters, e.cfg.Orders)
		set, meta = paginate(q, set, e.cfg.DefaultPageSize, e.cfg.CountTotals)
		data = set.Items()
	}

	// derive the keys to delete before projection possibly strips them from the output.
	var deleteKeys []map[string]any
	if method == http.MethodDelete {
		if deleteKeys, err = e.deleteKeys(data, singular, key); err != nil {
			return err
		}
	}

	data = e.cfg.Template.Project(data, q[ParamField])

	if method == http.MethodDelete {
		if err := e.finalizeDelete(ctx, store, deleteKeys); err != nil {
			return err
		}
	}

	env := &Envelope{Data: data, Count: countOf(data, singular), Pagination: meta}
	if meter != nil {
		env.Debug = map[string]any{
			"store_calls":  meter.calls,
			"store_millis": meter.spent.Milliseconds(),
		}
	}

	return e.encode(w, r, env)
}

// requestStore returns the store to use for this request, wrapped with a meter when
// debug mode is on. The meter is per-request, the shared config stays untouched.
func (e *Endpoint) requestStore() (Store, *meteredStore) {
	if e.cfg.Store == nil || !e.cfg.Debug {
		return e.cfg.Store, nil
	}

	meter := &meteredStore{inner: e.cfg.Store}
	return meter, meter
}

// pathKey collects the unique-field path parameters addressing a single resource.
func (e *Endpoint) pathKey(r *http.Request) map[string]any {
	key := make(map[string]any)
	for _, f := range e.cfg.KeyFields {
		val := r.PathValue(f)
		if val == "" {
			continue
		}

		key[f] = val
		if !e.cfg.MultiKey {
			break
		}
	}

	return key
}

func (e *Endpoint) checkMethod(method string, key map[string]any) error {
	if !e.methods[method] {
		return NewMethodNotAllowed(lo.Keys(e.methods))
	}

	// bulk mutation of the whole collection is opt-in, never implicit.
	if (method == http.MethodPut || method == http.MethodDelete) && len(key) == 0 && !e.plural[method] {
		return NewMethodNotAllowed(lo.Keys(e.plural))
	}

	return nil
}

func (e *Endpoint) decodeBody(r *http.Request) (any, error) {
	dec, ok := e.cfg.Codecs.DecoderFor(r.Header.Get("Content-Type"))
	if !ok {
		return nil, NewError(CodeUnsupportedMediaType, errors.New("no decoder for declared content type"))
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read request body")
	}

	body, err := dec.Decode(raw)
	if err != nil {
		return nil, NewMessageError(CodeBadRequest, "malformed request body")
	}

	return body, nil
}

// cleanse drops every body field that is not on the method's allow-list. It is a pure
// allow-list filter, not a validator: unknown fields disappear silently. It handles a
// single object and a list of objects alike.
func (e *Endpoint) cleanse(method string, body any) any {
	allow := e.postFields
	if method == http.MethodPut {
		allow = e.putFields
	}

	if allow == nil {
		return body
	}

	switch b := body.(type) {
	case Resource:
		return cleanseOne(b, allow)
	case []any:
		out := make([]any, len(b))
		for i, el := range b {
			if m, ok := el.(Resource); ok {
				out[i] = cleanseOne(m, allow)
				continue
			}

			out[i] = el
		}

		return out
	default:
		return body
	}
}

func cleanseOne(r Resource, allow map[string]bool) Resource {
	out := make(Resource, len(r))
	for key, val := range r {
		if allow[key] {
			out[key] = val
		}
	}

	return out
}

// action runs the verb-specific data operation through the store adapter.
func (e *Endpoint) action(
	ctx context.Context, r *http.Request, store Store,
	method string, key map[string]any, body any,
) (any, bool, error) {
	switch method {
	case http.MethodGet:
		return e.actionGet(ctx, r, store, key)
	case http.MethodPost:
		return e.actionPost(ctx, store, body)
	case http.MethodPut:
		return e.actionPut(ctx, r, store, key, body)
	case http.MethodDelete:
		return e.actionDelete(ctx, r, store, key)
	default:
		return nil, false, NewError(CodeNotImplemented, errors.Newf("verb %s not implemented", method))
	}
}

// actionGet resolves get-one-or-many: path parameters that address a unique resource
// attempt a single lookup first; without them the collection path serves. A failed
// single lookup is uniformly 410 Gone, whether the resource never existed, the key was
// mistyped or it was deleted. Not distinguishing those cases is deliberate.
func (e *Endpoint) actionGet(ctx context.Context, r *http.Request, store Store, key map[string]any) (any, bool, error) {
	if e.cfg.Get != nil {
		data, err := e.cfg.Get(ctx, r)
		if err != nil {
			return nil, false, err
		}

		_, isSet := data.(Set)
		return data, !isSet, nil
	}

	if store == nil {
		return nil, false, NewError(CodeNotImplemented, errors.New("GET is not implemented"))
	}

	if len(key) > 0 {
		res, err := store.FetchOne(ctx, key)
		if err != nil {
			return nil, false, goneOrUnexpected(err)
		}

		return res, true, nil
	}

	set, err := store.FetchMany(ctx)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to fetch collection")
	}

	// filters and ordering run in the collection pipeline stage, which sees every Set an
	// action returns, including Get overrides.
	return set, false, nil
}

func (e *Endpoint) actionPost(ctx context.Context, store Store, body any) (any, bool, error) {
	if store == nil {
		return nil, false, NewError(CodeNotImplemented, errors.New("POST is not implemented"))
	}

	items, singular, err := bodyItems(body)
	if err != nil {
		return nil, false, err
	}

	if e.cfg.ValidateCreate != nil {
		for _, item := range items {
			if err := e.cfg.ValidateCreate(ctx, item); err != nil {
				return nil, false, asBadRequest(err)
			}
		}
	}

	created := make([]Resource, 0, len(items))
	for _, item := range items {
		res, err := store.Create(ctx, item)
		if err != nil {
			return nil, false, storeMutationError(err)
		}

		created = append(created, res)
	}

	if singular {
		return created[0], true, nil
	}

	return created, false, nil
}

// actionPut merges the already-cleansed fields onto the fetched target(s), validates the
// merged entities and persists them.
func (e *Endpoint) actionPut(
	ctx context.Context, r *http.Request, store Store, key map[string]any, body any,
) (any, bool, error) {
	if store == nil {
		return nil, false, NewError(CodeNotImplemented, errors.New("PUT is not implemented"))
	}

	fields, ok := body.(Resource)
	if !ok {
		return nil, false, NewMessageError(CodeBadRequest, "PUT body must be a single object")
	}

	targets, singular, err := e.fetchTargets(ctx, r, store, key)
	if err != nil {
		return nil, false, err
	}

	merged := make([]Resource, 0, len(targets))
	for _, target := range targets {
		m := make(Resource, len(target)+len(fields))
		for k, v := range target {
			m[k] = v
		}
		for k, v := range fields {
			m[k] = v
		}

		if e.cfg.ValidateUpdate != nil {
			if err := e.cfg.ValidateUpdate(ctx, m); err != nil {
				return nil, false, asBadRequest(err)
			}
		}

		merged = append(merged, m)
	}

	updated := make([]Resource, 0, len(merged))
	for _, m := range merged {
		res, err := store.Update(ctx, m)
		if err != nil {
			return nil, false, storeMutationError(err)
		}

		updated = append(updated, res)
	}

	if singular {
		return updated[0], true, nil
	}

	return updated, false, nil
}

// actionDelete only fetches what is about to be deleted; the destructive side effect is
// deferred until after projection so the response can still describe the deleted data.
func (e *Endpoint) actionDelete(ctx context.Context, r *http.Request, store Store, key map[string]any) (any, bool, error) {
	if store == nil {
		return nil, false, NewError(CodeNotImplemented, errors.New("DELETE is not implemented"))
	}

	targets, singular, err := e.fetchTargets(ctx, r, store, key)
	if err != nil {
		return nil, false, err
	}

	if singular {
		return targets[0], true, nil
	}

	return Items(targets), false, nil
}

// fetchTargets resolves the resources a mutating request addresses: one by key, or the
// filtered collection for (opted-in) bulk requests.
func (e *Endpoint) fetchTargets(ctx context.Context, r *http.Request, store Store, key map[string]any) ([]Resource, bool, error) {
	if len(key) > 0 {
		res, err := store.FetchOne(ctx, key)
		if err != nil {
			return nil, false, goneOrUnexpected(err)
		}

		return []Resource{res}, true, nil
	}

	set, err := store.FetchMany(ctx)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to fetch collection")
	}

	set = applyFilters(r.URL.Query(), set, e.cfg.Filters, e.cfg.Orders)
	return set.Items(), false, nil
}

// deleteKeys derives the store keys for everything the response will report deleted.
func (e *Endpoint) deleteKeys(data any, singular bool, requestKey map[string]any) ([]map[string]any, error) {
	if singular {
		return []map[string]any{requestKey}, nil
	}

	items, ok := data.([]Resource)
	if !ok {
		return nil, errors.Newf("cannot derive delete keys from %T", data)
	}

	keys := make([]map[string]any, 0, len(items))
	for _, item := range items {
		key := make(map[string]any, len(e.cfg.KeyFields))
		for _, f := range e.cfg.KeyFields {
			if val, ok := item[f]; ok {
				key[f] = val
			}
		}

		if len(key) == 0 {
			return nil, errors.New("resource lacks key fields, cannot delete")
		}

		keys = append(keys, key)
	}

	return keys, nil
}

func (e *Endpoint) finalizeDelete(ctx context.Context, store Store, keys []map[string]any) error {
	for _, key := range keys {
		if err := store.Delete(ctx, key); err != nil {
			return storeMutationError(err)
		}
	}

	return nil
}

// encode negotiates the response encoder from the Accept header and writes the envelope.
func (e *Endpoint) encode(w ResponseWriter, r *http.Request, env *Envelope) error {
	enc := e.cfg.Codecs.EncoderFor(r.Header.Get("Accept"))

	data, err := enc.Encode(env)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", enc.ContentType())
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "failed to write response")
	}

	return nil
}

// Envelope is the canonical body shape of every successful response.
type Envelope struct {
	Data       any            `json:"data"`
	Count      int            `json:"count"`
	Pagination *Pagination    `json:"pagination,omitempty"`
	Debug      map[string]any `json:"debug,omitempty"`
}

// bodyItems normalizes a decoded body into the entities it describes: a single object
// or a list of objects.
func bodyItems(body any) ([]Resource, bool, error) {
	switch b := body.(type) {
	case Resource:
		return []Resource{b}, true, nil
	case []any:
		items := make([]Resource, 0, len(b))
		for _, el := range b {
			m, ok := el.(Resource)
			if !ok {
				return nil, false, NewMessageError(CodeBadRequest, "body list elements must be objects")
			}

			items = append(items, m)
		}

		return items, false, nil
	default:
		return nil, false, NewMessageError(CodeBadRequest, "body must be an object or a list of objects")
	}
}

// countOf reports 1 for singular results and the length for collections and mappings.
func countOf(data any, singular bool) int {
	if singular {
		return 1
	}

	switch d := data.(type) {
	case []Resource:
		return len(d)
	case []any:
		return len(d)
	case Resource:
		return len(d)
	default:
		return 1
	}
}

// goneOrUnexpected collapses every failed single-resource lookup into 410 Gone, except
// genuine store failures which stay unexpected (500).
func goneOrUnexpected(err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrBadKey) {
		return NewError(CodeGone, err)
	}

	return errors.Wrap(err, "store lookup failed")
}

// storeMutationError translates store-reported conditions on create/update/delete.
func storeMutationError(err error) error {
	switch {
	case errors.Is(err, ErrConflict):
		return NewError(CodeUnprocessableEntity, err)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrBadKey):
		return NewError(CodeGone, err)
	default:
		return errors.Wrap(err, "store mutation failed")
	}
}

// asBadRequest lets structured validation errors pass and normalizes everything else
// into a 400 with the catch-all field payload.
func asBadRequest(err error) error {
	if _, ok := asError(err); ok {
		return err
	}

	return NewMessageError(CodeBadRequest, err.Error())
}
