// Package client is the Go client of the note keeper API
// It owns an explicit session and an editing session with debounced autosave
// Package client 笔记服务 API 的 Go 客户端，持有显式的登录会话和带防抖自动保存的编辑会话
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/haierkeys/note-keeper-service/internal/dto"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrNotLoggedIn is returned by authenticated calls when the session holds no token
// ErrNotLoggedIn 会话中没有令牌时调用需认证的接口返回该错误
var ErrNotLoggedIn = errors.New("client: not logged in")

// APIError non-2xx response of the server
// APIError 服务端返回的非 2xx 响应
type APIError struct {
	Status  int      `json:"-"`
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	TraceID string   `json:"traceId,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Message, strings.Join(e.Details, "; "))
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports a 401, which forces a logout
// IsUnauthorized 是否为 401，收到后强制登出
func IsUnauthorized(err error) bool {
	return statusOf(err) == http.StatusUnauthorized
}

// IsNotFound 是否为 404
func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

// IsConflict 是否为 409
func IsConflict(err error) bool {
	return statusOf(err) == http.StatusConflict
}

// Client HTTP client of the note keeper API
// Client 笔记服务 HTTP 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	lang       string
	logger     *zap.Logger
}

// Option 客户端选项
type Option func(*Client)

// WithHTTPClient 使用自定义 http.Client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithSession 使用指定会话，默认是内存会话
func WithSession(s *Session) Option {
	return func(c *Client) {
		c.session = s
	}
}

// WithLang 设置请求语言 (en / zh)
func WithLang(lang string) Option {
	return func(c *Client) {
		c.lang = lang
	}
}

// WithLogger 设置日志器
func WithLogger(lg *zap.Logger) Option {
	return func(c *Client) {
		c.logger = lg
	}
}

// New creates a client for baseURL, e.g. http://127.0.0.1:9000
// New 创建客户端
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.session == nil {
		c.session, _ = NewSession(NewMemoryStore())
	}
	return c
}

// Session 返回客户端持有的会话
func (c *Client) Session() *Session {
	return c.session
}

// do sends one request; a 401 on an authenticated call logs the session out
// do 发送请求，需认证的请求收到 401 时登出会话
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any, auth bool) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return pkgerrors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return pkgerrors.Wrapf(err, "build request %s %s", method, path)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.lang != "" {
		req.Header.Set("lang", c.lang)
	}

	if auth {
		token := c.session.Token()
		if token == "" {
			return ErrNotLoggedIn
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		if auth && resp.StatusCode == http.StatusUnauthorized {
			c.logger.Info("session rejected by server, logging out", zap.String("path", path))
			if err := c.session.Logout(); err != nil {
				c.logger.Warn("logout failed", zap.Error(err))
			}
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrapf(err, "decode %s %s", method, path)
	}
	return nil
}

// Health 检查服务是否存活
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, &out, false); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("client: unexpected health status %q", out.Status)
	}
	return nil
}

// Register registers an account and stores the returned session
// Register 注册账号并保存返回的会话
func (c *Client) Register(ctx context.Context, email, password, name string) (*dto.UserDTO, error) {
	var out dto.AuthDTO
	in := &dto.UserRegisterRequest{Email: email, Password: password, Name: name}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, in, &out, false); err != nil {
		return nil, err
	}
	if err := c.session.Login(out.Token, out.User); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Login logs in and stores the returned session
// Login 登录并保存返回的会话
func (c *Client) Login(ctx context.Context, email, password string) (*dto.UserDTO, error) {
	var out dto.AuthDTO
	in := &dto.UserLoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, in, &out, false); err != nil {
		return nil, err
	}
	if err := c.session.Login(out.Token, out.User); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Logout 清除本地会话，服务端无状态
func (c *Client) Logout() error {
	return c.session.Logout()
}

// Me 获取当前用户
func (c *Client) Me(ctx context.Context) (*dto.UserDTO, error) {
	var out dto.UserDTO
	if err := c.do(ctx, http.MethodGet, "/api/user/info", nil, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListOptions 笔记列表查询参数
type ListOptions struct {
	Search string
	Sort   string // createdAt / updatedAt / title
	Order  string // asc / desc
	Tags   []int64
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}
	if o.Order != "" {
		q.Set("order", o.Order)
	}
	if len(o.Tags) > 0 {
		ids := make([]string, 0, len(o.Tags))
		for _, id := range o.Tags {
			ids = append(ids, strconv.FormatInt(id, 10))
		}
		q.Set("tags", strings.Join(ids, ","))
	}
	return q
}

// ListNotes 列出笔记
func (c *Client) ListNotes(ctx context.Context, opts ListOptions) ([]*dto.NoteDTO, error) {
	var out []*dto.NoteDTO
	if err := c.do(ctx, http.MethodGet, "/api/notes", opts.values(), nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateNote 创建笔记
func (c *Client) CreateNote(ctx context.Context, req *dto.NoteCreateRequest) (*dto.NoteDTO, error) {
	var out dto.NoteDTO
	if err := c.do(ctx, http.MethodPost, "/api/notes", nil, req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func notePath(id int64) string {
	return "/api/notes/" + strconv.FormatInt(id, 10)
}

// GetNote 获取笔记
func (c *Client) GetNote(ctx context.Context, id int64) (*dto.NoteDTO, error) {
	var out dto.NoteDTO
	if err := c.do(ctx, http.MethodGet, notePath(id), nil, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateNote 更新笔记，只提交非 nil 字段
func (c *Client) UpdateNote(ctx context.Context, id int64, req *dto.NoteUpdateRequest) (*dto.NoteDTO, error) {
	var out dto.NoteDTO
	if err := c.do(ctx, http.MethodPut, notePath(id), nil, req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteNote 删除笔记
func (c *Client) DeleteNote(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, notePath(id), nil, nil, nil, true)
}

// History 获取笔记历史，最新的在前
func (c *Client) History(ctx context.Context, id int64) ([]*dto.NoteHistoryDTO, error) {
	var out []*dto.NoteHistoryDTO
	if err := c.do(ctx, http.MethodGet, notePath(id)+"/history", nil, nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// HistoryDiff 获取第 index 条历史到当前内容的差异
func (c *Client) HistoryDiff(ctx context.Context, id int64, index int) (*dto.NoteHistoryDiffDTO, error) {
	var out dto.NoteHistoryDiffDTO
	path := fmt.Sprintf("%s/history/%d/diff", notePath(id), index)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// RestoreHistory 恢复第 index 条历史
func (c *Client) RestoreHistory(ctx context.Context, id int64, index int) (*dto.NoteDTO, error) {
	var out dto.NoteDTO
	path := fmt.Sprintf("%s/history/%d/restore", notePath(id), index)
	if err := c.do(ctx, http.MethodPut, path, nil, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTags 列出标签
func (c *Client) ListTags(ctx context.Context) ([]*dto.TagDTO, error) {
	var out []*dto.TagDTO
	if err := c.do(ctx, http.MethodGet, "/api/tags", nil, nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTag 创建标签
func (c *Client) CreateTag(ctx context.Context, name string) (*dto.TagDTO, error) {
	var out dto.TagDTO
	if err := c.do(ctx, http.MethodPost, "/api/tags", nil, &dto.TagCreateRequest{Name: name}, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTag 删除标签
func (c *Client) DeleteTag(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/tags/"+strconv.FormatInt(id, 10), nil, nil, nil, true)
}
