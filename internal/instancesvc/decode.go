package instancesvc

import (
	"fmt"
	"strings"

	"github.com/connectleads/wamanager/internal/domain"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

// listPaths are the envelope shapes the service has used for collections.
var listPaths = []string{"data.instances", "data", "instances"}

// collection finds the first array among paths.
func collection(body []byte, paths ...string) (gjson.Result, bool) {
	for _, p := range paths {
		r := gjson.GetBytes(body, p)
		if r.IsArray() {
			return r, true
		}
	}
	return gjson.Result{}, false
}

// decodeInstance converts one loosely typed record. Numeric ids may arrive as
// strings and flags as "true"/"1", so decoding is weakly typed.
func decodeInstance(raw interface{}) (domain.WhatsAppInstance, error) {
	var inst domain.WhatsAppInstance
	m, ok := raw.(map[string]interface{})
	if !ok {
		return inst, fmt.Errorf("instance record is %T, not an object", raw)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &inst,
	})
	if err != nil {
		return inst, err
	}
	if err := dec.Decode(m); err != nil {
		return inst, err
	}
	if inst.ConnectionStatus == "" {
		// older payloads only carry "status"
		inst.ConnectionStatus = cast.ToString(m["status"])
	}
	return inst, nil
}

func decodeInstances(body []byte) ([]domain.WhatsAppInstance, error) {
	arr, ok := collection(body, listPaths...)
	if !ok {
		if strings.TrimSpace(string(body)) == "" || gjson.GetBytes(body, "data").Type == gjson.Null {
			return []domain.WhatsAppInstance{}, nil
		}
		return nil, fmt.Errorf("unexpected list payload")
	}
	out := make([]domain.WhatsAppInstance, 0, len(arr.Array()))
	for _, item := range arr.Array() {
		inst, err := decodeInstance(item.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

func decodeUsers(body []byte) []domain.User {
	arr, ok := collection(body, "data.users", "data", "users")
	if !ok {
		return []domain.User{}
	}
	users := make([]domain.User, 0, len(arr.Array()))
	for _, item := range arr.Array() {
		m, ok := item.Value().(map[string]interface{})
		if !ok {
			continue
		}
		users = append(users, domain.User{
			ID:    cast.ToString(m["id"]),
			Name:  cast.ToString(m["name"]),
			Email: cast.ToString(m["email"]),
			Phone: cast.ToString(m["phone"]),
		})
	}
	return users
}

// decodeRecord reads a single instance under "data". A list under "data"
// yields its first element. ok is false when no record is present.
func decodeRecord(body []byte) (*domain.WhatsAppInstance, bool, error) {
	data := gjson.GetBytes(body, "data")
	if data.IsArray() {
		items := data.Array()
		if len(items) == 0 {
			return nil, false, nil
		}
		data = items[0]
	}
	if !data.IsObject() {
		return nil, false, nil
	}
	inst, err := decodeInstance(data.Value())
	if err != nil {
		return nil, false, err
	}
	return &inst, true, nil
}

// firstString returns the first non-empty string among paths.
func firstString(body []byte, paths ...string) string {
	for _, p := range paths {
		if v := gjson.GetBytes(body, p); v.Exists() {
			if s := strings.TrimSpace(cast.ToString(v.Value())); s != "" {
				return s
			}
		}
	}
	return ""
}

func decodeQR(body []byte) domain.QRCode {
	return domain.QRCode{
		Code:        firstString(body, "code", "qrcode.code", "data.code", "data.qrcode.code"),
		Base64:      firstString(body, "base64", "qrcode.base64", "data.base64", "data.qrcode.base64", "qrcode", "data.qrcode"),
		PairingCode: firstString(body, "pairingCode", "qrcode.pairingCode", "data.pairingCode"),
	}
}

func decodeLiveData(body []byte) domain.LiveData {
	return domain.LiveData{
		Name:   firstString(body, "name", "data.name"),
		Number: firstString(body, "number", "data.number"),
		Photo:  firstString(body, "photo", "data.photo"),
	}
}

// rejected reports an application-level failure carried in a 2xx body.
func rejected(body []byte) (string, bool) {
	if s := gjson.GetBytes(body, "success"); s.Exists() && s.Type == gjson.False {
		msg := firstString(body, "message", "error")
		if msg == "" {
			msg = "rejected by service"
		}
		return msg, true
	}
	if e := gjson.GetBytes(body, "error"); e.Type == gjson.String && e.String() != "" {
		return e.String(), true
	}
	return "", false
}
