package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agronova-api/pkg/services"
)

// LocationHandler 位置階層データのハンドラー
type LocationHandler struct {
	locationService *services.LocationService
}

// NewLocationHandler 新しい位置階層ハンドラーを作成
func NewLocationHandler(locationService *services.LocationService) *LocationHandler {
	return &LocationHandler{
		locationService: locationService,
	}
}

// GetCountries 選択可能な国の一覧を返します。
func (lh *LocationHandler) GetCountries(c *gin.Context) {
	countries := lh.locationService.Countries()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    countries,
		"count":   len(countries),
	})
}

// GetStates 指定国の州・省の一覧を返します。
// 上流の失敗（nil）は502、上流が「データなし」を正常応答した場合は
// 空の一覧を200で返します。
func (lh *LocationHandler) GetStates(c *gin.Context) {
	country := c.Query("country")
	if country == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "country query parameter is required"})
		return
	}

	states := lh.locationService.ListStates(c.Request.Context(), country)
	if states == nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   "Location service unavailable.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"country": country,
		"data":    states,
		"count":   len(states),
	})
}

// GetDistricts 指定国・州の郡（市）の一覧を返します。縮退契約はGetStatesと同一です。
func (lh *LocationHandler) GetDistricts(c *gin.Context) {
	country := c.Query("country")
	state := c.Query("state")
	if country == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "country and state query parameters are required"})
		return
	}

	districts := lh.locationService.ListDistricts(c.Request.Context(), country, state)
	if districts == nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   "Location service unavailable.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"country": country,
		"state":   state,
		"data":    districts,
		"count":   len(districts),
	})
}
