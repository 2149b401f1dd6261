package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

// Service identifiers accepted in Settings.Service.
const (
	ServiceAuto        = "auto"
	ServiceIPAPI       = "ip-api"
	ServiceIPAPICo     = "ipapi"
	ServiceIP2Location = "ip2location"
	ServiceIPInfo      = "ipinfo"
	ServiceMaxMind     = "maxmind"
)

// Provider is one HTTP geolocation service. An empty ip in URL asks the
// service about the caller's own address.
type Provider interface {
	Name() string
	RequiresKey() bool
	URL(ip string) string
	Parse(body []byte) (Record, error)
}

// IPAPI is ip-api.com. Free, plain HTTP.
type IPAPI struct{}

func (IPAPI) Name() string      { return ServiceIPAPI }
func (IPAPI) RequiresKey() bool { return false }

func (IPAPI) URL(ip string) string {
	return fmt.Sprintf("http://ip-api.com/json/%s?fields=status,message,country,regionName,city,isp,query", url.PathEscape(ip))
}

func (IPAPI) Parse(body []byte) (Record, error) {
	var resp struct {
		Status     string `json:"status"`
		Message    string `json:"message"`
		Query      string `json:"query"`
		Country    string `json:"country"`
		RegionName string `json:"regionName"`
		City       string `json:"city"`
		ISP        string `json:"isp"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return Record{}, err
	}
	if resp.Status != "success" {
		return Record{}, apiError(resp.Message)
	}
	return Record{
		IP:      resp.Query,
		Country: resp.Country,
		Region:  resp.RegionName,
		City:    resp.City,
		ISP:     resp.ISP,
	}, nil
}

// IPAPICo is ipapi.co.
type IPAPICo struct{}

func (IPAPICo) Name() string      { return ServiceIPAPICo }
func (IPAPICo) RequiresKey() bool { return false }

func (IPAPICo) URL(ip string) string {
	if ip == "" {
		return "https://ipapi.co/json/"
	}
	return fmt.Sprintf("https://ipapi.co/%s/json/", url.PathEscape(ip))
}

func (IPAPICo) Parse(body []byte) (Record, error) {
	var resp struct {
		Error       bool   `json:"error"`
		Reason      string `json:"reason"`
		IP          string `json:"ip"`
		CountryName string `json:"country_name"`
		Region      string `json:"region"`
		City        string `json:"city"`
		Org         string `json:"org"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return Record{}, err
	}
	if resp.Error {
		return Record{}, apiError(resp.Reason)
	}
	return Record{
		IP:      resp.IP,
		Country: resp.CountryName,
		Region:  resp.Region,
		City:    resp.City,
		ISP:     resp.Org,
	}, nil
}

// IP2Location is api.ip2location.io. Requires an API key.
type IP2Location struct {
	Key string
}

func (IP2Location) Name() string      { return ServiceIP2Location }
func (IP2Location) RequiresKey() bool { return true }

func (p IP2Location) URL(ip string) string {
	q := url.QueryEscape
	if ip == "" {
		return fmt.Sprintf("https://api.ip2location.io/v2/ip?key=%s&format=json", q(p.Key))
	}
	return fmt.Sprintf("https://api.ip2location.io/v2/ip?ip=%s&key=%s&format=json", q(ip), q(p.Key))
}

func (IP2Location) Parse(body []byte) (Record, error) {
	var resp struct {
		Error *struct {
			ErrorMessage string `json:"error_message"`
		} `json:"error"`
		IP          string `json:"ip"`
		CountryName string `json:"country_name"`
		RegionName  string `json:"region_name"`
		CityName    string `json:"city_name"`
		ISP         string `json:"isp"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return Record{}, err
	}
	if resp.Error != nil {
		return Record{}, apiError(resp.Error.ErrorMessage)
	}
	return Record{
		IP:      resp.IP,
		Country: resp.CountryName,
		Region:  resp.RegionName,
		City:    resp.CityName,
		ISP:     resp.ISP,
	}, nil
}

// IPInfo is ipinfo.io. The token is optional.
type IPInfo struct {
	Token string
}

func (IPInfo) Name() string      { return ServiceIPInfo }
func (IPInfo) RequiresKey() bool { return false }

func (p IPInfo) URL(ip string) string {
	switch {
	case ip == "" && p.Token != "":
		return "https://ipinfo.io/json?token=" + url.QueryEscape(p.Token)
	case ip == "":
		return "https://ipinfo.io/json"
	case p.Token != "":
		return fmt.Sprintf("https://ipinfo.io/%s?token=%s", url.PathEscape(ip), url.QueryEscape(p.Token))
	default:
		return fmt.Sprintf("https://ipinfo.io/%s/json", url.PathEscape(ip))
	}
}

func (IPInfo) Parse(body []byte) (Record, error) {
	var resp struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		IP      string `json:"ip"`
		Country string `json:"country"`
		Region  string `json:"region"`
		City    string `json:"city"`
		Org     string `json:"org"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return Record{}, err
	}
	if resp.Error != nil {
		return Record{}, apiError(resp.Error.Message)
	}
	return Record{
		IP:      resp.IP,
		Country: resp.Country,
		Region:  resp.Region,
		City:    resp.City,
		ISP:     resp.Org,
	}, nil
}

func apiError(msg string) error {
	if msg == "" {
		msg = "query failed"
	}
	return errors.New(msg)
}

// ServiceInfo describes a selectable service.
type ServiceInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	RequiresKey bool   `json:"requires_key"`
}

// SupportedServices lists the values accepted in Settings.Service.
func SupportedServices() []ServiceInfo {
	return []ServiceInfo{
		{ID: ServiceAuto, Name: "Automatic (fallback chain)"},
		{ID: ServiceIPAPI, Name: "ip-api.com"},
		{ID: ServiceIPAPICo, Name: "ipapi.co"},
		{ID: ServiceIP2Location, Name: "IP2Location.io", RequiresKey: true},
		{ID: ServiceIPInfo, Name: "ipinfo.io"},
	}
}
