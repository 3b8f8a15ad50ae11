package qq

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

const defaultBaseURL = "https://graph.qq.com"

// Payload QQ 登录请求载荷，由前端 OAuth 回调获得
type Payload struct {
	OpenID      string `json:"open_id"`
	AccessToken string `json:"access_token"`
}

type userInfoResponse struct {
	Ret      int    `json:"ret"`
	Msg      string `json:"msg"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"figureurl_qq_1"`
}

// Client QQ 互联客户端
type Client struct {
	cfg        config.SocialProviderConfig
	baseURL    string
	httpClient *http.Client
}

// New 创建 QQ 客户端
func New(cfg config.SocialProviderConfig) *Client {
	return &Client{
		cfg:     cfg,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Exchange 校验 access_token 并换取稳定身份
// 先用 oauth2.0/me 确认 token 对应的 openid 与载荷一致，
// 再拉取公开资料；openid 不一致视为伪造载荷。
func (c *Client) Exchange(ctx context.Context, raw []byte) (*social.Identity, error) {
	if c == nil || !c.cfg.Enabled {
		return nil, social.ErrProviderDisabled
	}
	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, social.ErrPayloadInvalid
	}
	payload.OpenID = strings.TrimSpace(payload.OpenID)
	payload.AccessToken = strings.TrimSpace(payload.AccessToken)
	if payload.OpenID == "" || payload.AccessToken == "" {
		return nil, social.ErrPayloadInvalid
	}

	openID, err := c.fetchOpenID(ctx, payload.AccessToken)
	if err != nil {
		return nil, err
	}
	if openID != payload.OpenID {
		return nil, social.ErrIdentityMismatch
	}

	identity := &social.Identity{ProviderUID: openID}
	info, err := c.fetchUserInfo(ctx, payload.AccessToken, openID)
	if err == nil && info != nil {
		identity.Nickname = info.Nickname
		identity.Avatar = info.Avatar
	}
	return identity, nil
}

// fetchOpenID 调用 oauth2.0/me 获取 token 对应的 openid
// 响应为 JSONP：callback( {"client_id":"...","openid":"..."} );
func (c *Client) fetchOpenID(ctx context.Context, accessToken string) (string, error) {
	endpoint := fmt.Sprintf("%s/oauth2.0/me?access_token=%s", c.baseURL, url.QueryEscape(accessToken))
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(string(body))
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", social.ErrExchangeFailed
	}
	var me struct {
		ClientID string `json:"client_id"`
		OpenID   string `json:"openid"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &me); err != nil {
		return "", social.ErrExchangeFailed
	}
	if me.OpenID == "" {
		return "", social.ErrExchangeFailed
	}
	return me.OpenID, nil
}

func (c *Client) fetchUserInfo(ctx context.Context, accessToken, openID string) (*userInfoResponse, error) {
	query := url.Values{}
	query.Set("access_token", accessToken)
	query.Set("oauth_consumer_key", c.cfg.AppID)
	query.Set("openid", openID)
	endpoint := fmt.Sprintf("%s/user/get_user_info?%s", c.baseURL, query.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	var info userInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, social.ErrExchangeFailed
	}
	if info.Ret != 0 {
		return nil, fmt.Errorf("%w: ret=%d msg=%s", social.ErrExchangeFailed, info.Ret, info.Msg)
	}
	return &info, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
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
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}
