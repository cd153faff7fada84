package services

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// LocationService 国・州・郡の階層データAPIをラップするゲートウェイです。
// WeatherServiceと同じ縮退契約を持ちます: 通信・解析の失敗はnil（欠損）、
// 上流が「該当データなし」を正常応答した場合は空スライス（非nil）を返します。
type LocationService struct {
	baseURL string
	client  *http.Client
}

// NewLocationService 新しい位置階層ゲートウェイを作成
func NewLocationService(baseURL string) *LocationService {
	return &LocationService{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// locationEnvelope 上流APIの共通レスポンス封筒。error=falseの場合のみ
// dataを信頼します。
type locationEnvelope struct {
	Error bool            `json:"error"`
	Msg   string          `json:"msg"`
	Data  json.RawMessage `json:"data"`
}

// statesData statesエンドポイントのdata部
type statesData struct {
	Name   string `json:"name"`
	States []struct {
		Name string `json:"name"`
	} `json:"states"`
}

// Countries は選択可能な国の一覧を返します。上流APIには依存しません。
func (ls *LocationService) Countries() []string {
	return []string{"India", "Ghana", "Canada", "USA", "Brazil", "Australia"}
}

// ListStates は指定国の州・省の一覧を上流の順序のまま返します。
// 失敗時はnil、上流が州を持たない国を正常応答した場合は空スライスです。
func (ls *LocationService) ListStates(ctx context.Context, country string) []string {
	var data statesData
	if !ls.post(ctx, "/states", map[string]string{"country": country}, &data) {
		return nil
	}

	states := make([]string, 0, len(data.States))
	for _, s := range data.States {
		states = append(states, s.Name)
	}
	return states
}

// ListDistricts は指定国・州の郡（市）の一覧を上流の順序のまま返します。
// 縮退契約はListStatesと同一です。
func (ls *LocationService) ListDistricts(ctx context.Context, country, state string) []string {
	var cities []string
	if !ls.post(ctx, "/state/cities", map[string]string{"country": country, "state": state}, &cities) {
		return nil
	}
	if cities == nil {
		cities = make([]string, 0)
	}
	return cities
}

// post はPOST+JSONの共通処理です。dataを信頼してよい場合のみtrueを返します。
func (ls *LocationService) post(ctx context.Context, path string, body map[string]string, out interface{}) bool {
	payload, err := json.Marshal(body)
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ls.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		log.Printf("位置階層APIリクエストの作成に失敗: %v", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ls.client.Do(req)
	if err != nil {
		log.Printf("位置階層APIの呼び出しに失敗（欠損として継続）: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("位置階層APIが非成功ステータスを返却: %d (%s)", resp.StatusCode, path)
		return false
	}

	var envelope locationEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		log.Printf("位置階層APIレスポンスの解析に失敗: %v", err)
		return false
	}
	if envelope.Error {
		log.Printf("位置階層APIがエラーを報告: %s", envelope.Msg)
		return false
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		log.Printf("位置階層APIのdata解析に失敗: %v", err)
		return false
	}
	return true
}
