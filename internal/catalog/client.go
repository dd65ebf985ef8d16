// Package catalog is an HTTP client for the remote product catalog API.
package catalog

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/florist-storefront/internal/domain/product"
)

const maxBodySize = 8 << 20

var _ product.Catalog = (*Client)(nil)

var absoluteURL = regexp.MustCompile(`(?i)^https?://`)

// StatusError is returned when the catalog API responds with a non-2xx
// status other than 404 on a single-product lookup.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return "catalog: status " + strconv.Itoa(e.StatusCode) + ": " + e.Message
	}
	return "catalog: status " + strconv.Itoa(e.StatusCode)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// Client implements product.Catalog against the catalog REST API.
type Client struct {
	baseURL string
	apiBase string
	http    *http.Client
}

// New returns a Client for the API served at baseURL (without the /api/v1
// suffix).
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse catalog url")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("catalog url %q must be absolute", baseURL)
	}
	base := strings.TrimRight(baseURL, "/")
	c := &Client{
		baseURL: base,
		apiBase: base + "/api/v1",
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Search returns one page of products matching q.
func (c *Client) Search(ctx context.Context, q product.Query) (*product.SearchResult, error) {
	params := url.Values{}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Category != "" {
		params.Set("category", strings.ToUpper(string(q.Category)))
	}
	if q.InStock != nil {
		params.Set("inStock", strconv.FormatBool(*q.InStock))
	}
	if q.Featured != nil {
		params.Set("featured", strconv.FormatBool(*q.Featured))
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.SortBy != "" {
		params.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		params.Set("sortOrder", q.SortOrder)
	}

	path := "/products"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	result := &product.SearchResult{Products: []product.Product{}}
	err := c.get(ctx, path, func(d *jx.Decoder) error {
		return d.Arr(func(d *jx.Decoder) error {
			if d.Next() != jx.Object {
				return d.Skip()
			}
			p, err := product.Decode(d)
			if err != nil {
				return err
			}
			result.Products = append(result.Products, c.resolve(p))
			return nil
		})
	}, &result.Pagination)
	if err != nil {
		return nil, errors.Wrap(err, "search products")
	}
	return result, nil
}

// Categories returns product counts per category.
func (c *Client) Categories(ctx context.Context) ([]product.CategoryCount, error) {
	out := []product.CategoryCount{}
	err := c.get(ctx, "/products/categories", func(d *jx.Decoder) error {
		return d.Arr(func(d *jx.Decoder) error {
			var cc product.CategoryCount
			if err := d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "category":
					s, err := d.Str()
					if err != nil {
						return err
					}
					cc.Category = product.Category(strings.ToLower(s))
					return nil
				case "count":
					n, err := d.Int()
					if err != nil {
						return err
					}
					cc.Count = n
					return nil
				default:
					return d.Skip()
				}
			}); err != nil {
				return err
			}
			out = append(out, cc)
			return nil
		})
	}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return out, nil
}

// GetByID returns a single product. It returns product.ErrNotFound when the
// API answers 404.
func (c *Client) GetByID(ctx context.Context, id string) (*product.Product, error) {
	var (
		p     product.Product
		found bool
	)
	err := c.get(ctx, "/products/"+url.PathEscape(id), func(d *jx.Decoder) error {
		v, err := product.Decode(d)
		if err != nil {
			return err
		}
		p, found = c.resolve(v), true
		return nil
	}, nil)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %q", id)
	}
	if !found {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

// resolve turns a relative image path into an absolute URL on the API host.
func (c *Client) resolve(p product.Product) product.Product {
	if p.Image == "" || absoluteURL.MatchString(p.Image) {
		return p
	}
	if strings.HasPrefix(p.Image, "/") {
		p.Image = c.baseURL + p.Image
	} else {
		p.Image = c.baseURL + "/" + p.Image
	}
	return p
}

// get performs a GET request and decodes the response envelope
// {"success", "data", "pagination", "message"}. decodeData is called with
// the decoder positioned at the data value.
func (c *Client) get(ctx context.Context, path string, decodeData func(d *jx.Decoder) error, pagination *product.Pagination) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+path, nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "send request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return errors.Wrap(err, "read body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: envelopeMessage(body)}
	}

	var (
		success = true
		message string
	)
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "success":
			if d.Next() != jx.Bool {
				return d.Skip()
			}
			v, err := d.Bool()
			success = v
			return err
		case "message":
			if d.Next() != jx.String {
				return d.Skip()
			}
			v, err := d.Str()
			message = v
			return err
		case "data":
			if d.Next() == jx.Null {
				return d.Skip()
			}
			return decodeData(d)
		case "pagination":
			if pagination == nil || d.Next() != jx.Object {
				return d.Skip()
			}
			return decodePagination(d, pagination)
		default:
			return d.Skip()
		}
	}); err != nil {
		return errors.Wrap(err, "decode response")
	}
	if !success {
		if message == "" {
			message = "request failed"
		}
		return errors.Errorf("catalog: %s", message)
	}
	return nil
}

func decodePagination(d *jx.Decoder, p *product.Pagination) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var dst *int
		switch key {
		case "page":
			dst = &p.Page
		case "pageSize":
			dst = &p.PageSize
		case "total":
			dst = &p.Total
		case "totalPages":
			dst = &p.TotalPages
		}
		if dst == nil || d.Next() != jx.Number {
			return d.Skip()
		}
		v, err := d.Int()
		if err != nil {
			return err
		}
		*dst = v
		return nil
	})
}

// envelopeMessage extracts "message" from an error body, if present.
func envelopeMessage(body []byte) string {
	var message string
	d := jx.DecodeBytes(body)
	_ = d.Obj(func(d *jx.Decoder, key string) error {
		if key == "message" && d.Next() == jx.String {
			v, err := d.Str()
			message = v
			return err
		}
		return d.Skip()
	})
	return message
}
