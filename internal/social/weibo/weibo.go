package weibo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Keep-Fight/LightBlogSystem/internal/config"
	"github.com/Keep-Fight/LightBlogSystem/internal/social"
)

const defaultBaseURL = "https://api.weibo.com"

// Payload 微博登录请求载荷，携带授权码
type Payload struct {
	Code string `json:"code"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	UID         string `json:"uid"`
	Error       string `json:"error"`
}

type userShowResponse struct {
	ScreenName string `json:"screen_name"`
	Avatar     string `json:"avatar_large"`
}

// Client 微博开放平台客户端
type Client struct {
	cfg        config.SocialProviderConfig
	baseURL    string
	httpClient *http.Client
}

// New 创建微博客户端
func New(cfg config.SocialProviderConfig) *Client {
	return &Client{
		cfg:     cfg,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Exchange 用授权码换取 access_token 与 uid，再补全公开资料
func (c *Client) Exchange(ctx context.Context, raw []byte) (*social.Identity, error) {
	if c == nil || !c.cfg.Enabled {
		return nil, social.ErrProviderDisabled
	}
	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, social.ErrPayloadInvalid
	}
	payload.Code = strings.TrimSpace(payload.Code)
	if payload.Code == "" {
		return nil, social.ErrPayloadInvalid
	}

	token, err := c.fetchAccessToken(ctx, payload.Code)
	if err != nil {
		return nil, err
	}

	identity := &social.Identity{ProviderUID: token.UID}
	info, err := c.fetchUserShow(ctx, token.AccessToken, token.UID)
	if err == nil && info != nil {
		identity.Nickname = info.ScreenName
		identity.Avatar = info.Avatar
	}
	return identity, nil
}

func (c *Client) fetchAccessToken(ctx context.Context, code string) (*accessTokenResponse, error) {
	form := url.Values{}
	form.Set("client_id", c.cfg.AppID)
	form.Set("client_secret", c.cfg.AppSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", c.cfg.RedirectURI)
	form.Set("code", code)

	endpoint := fmt.Sprintf("%s/oauth2/access_token", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", social.ErrExchangeFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", social.ErrExchangeFailed, err)
	}

	var token accessTokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, social.ErrExchangeFailed
	}
	if token.Error != "" || token.AccessToken == "" || token.UID == "" {
		return nil, fmt.Errorf("%w: %s", social.ErrExchangeFailed, token.Error)
	}
	return &token, nil
}

func (c *Client) fetchUserShow(ctx context.Context, accessToken, uid string) (*userShowResponse, error) {
	query := url.Values{}
	query.Set("access_token", accessToken)
	query.Set("uid", uid)
	endpoint := fmt.Sprintf("%s/2/users/show.json?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", social.ErrExchangeFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status=%d", social.ErrExchangeFailed, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", social.ErrExchangeFailed, err)
	}
	var info userShowResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, social.ErrExchangeFailed
	}
	return &info, nil
}
