package domain

import "strings"

// MaxInstances is the per-tenant instance limit.
const MaxInstances = 5

// WhatsAppInstance is one messaging endpoint as reported by the remote
// instance service. ApiKey and Token are opaque and never modified here.
type WhatsAppInstance struct {
	ID               string `json:"id"`
	InstanceID       int64  `json:"instance_id"`
	InstanceName     string `json:"instance_name"`
	ApiKey           string `json:"apikey"`
	LocationID       string `json:"location_id"`
	Token            string `json:"token"`
	ConnectionStatus string `json:"connectionStatus"`
	Alias            string `json:"alias"`
	IsMainDevice     bool   `json:"isMainDevice"`
	FacebookAds      bool   `json:"facebookAds"`
	// UserID is the assigned user; empty means none (always empty on the main device).
	UserID    string `json:"userId"`
	UserName  string `json:"user_name"`
	UserPhone string `json:"user_phone"`
	UserMail  string `json:"user_mail"`
}

// Status returns the canonical connection status.
func (i WhatsAppInstance) Status() Status {
	return NormalizeStatus(i.ConnectionStatus)
}

// Config returns the operator-editable part of the instance.
func (i WhatsAppInstance) Config() InstanceConfig {
	return InstanceConfig{
		Alias:        i.Alias,
		UserID:       i.UserID,
		IsMainDevice: i.IsMainDevice,
		FacebookAds:  i.FacebookAds,
	}
}

// InstanceConfig is the payload sent on create and edit.
type InstanceConfig struct {
	Alias        string `json:"alias"`
	UserID       string `json:"userId,omitempty"`
	IsMainDevice bool   `json:"isMainDevice"`
	FacebookAds  bool   `json:"facebookAds"`
}

// Normalize trims the alias and enforces that a main device carries no user.
func (c InstanceConfig) Normalize() InstanceConfig {
	c.Alias = strings.TrimSpace(c.Alias)
	c.UserID = strings.TrimSpace(c.UserID)
	if c.IsMainDevice {
		c.UserID = ""
	}
	return c
}

// NewUser carries the details of a user registered together with an instance.
type NewUser struct {
	Name  string `json:"user_name"`
	Email string `json:"user_email"`
	Phone string `json:"user_phone"`
}

// IsZero reports whether no field is set.
func (u NewUser) IsZero() bool {
	return u.Name == "" && u.Email == "" && u.Phone == ""
}

// User is a tenant-scoped person record, read only.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// NewUserFrom copies the contact fields of u.
func NewUserFrom(u User) NewUser {
	return NewUser{Name: u.Name, Email: u.Email, Phone: u.Phone}
}

// QRCode is the pairing challenge of a not yet connected instance. The zero
// value is the placeholder shown when the challenge could not be fetched.
type QRCode struct {
	Code        string `json:"code"`
	Base64      string `json:"base64"`
	PairingCode string `json:"pairingCode"`
}

// IsEmpty reports whether the QR carries no challenge.
func (q QRCode) IsEmpty() bool {
	return q.Code == "" && q.Base64 == "" && q.PairingCode == ""
}

// LiveData is the profile information of a connected number.
type LiveData struct {
	Name   string `json:"name"`
	Number string `json:"number"`
	Photo  string `json:"photo"`
}

// IsEmpty reports whether no field is set.
func (d LiveData) IsEmpty() bool {
	return d.Name == "" && d.Number == "" && d.Photo == ""
}
