package domain

import "time"

// WaOperationLog records one operator action against the remote instance
// service and its outcome. It is an audit trail only; instance state is always
// read back from the remote service.
type WaOperationLog struct {
	ID           int64     `json:"id,string" gorm:"primaryKey"`
	LocationID   string    `json:"location_id" gorm:"index"`
	Action       string    `json:"action" gorm:"index"`
	InstanceName string    `json:"instance_name"`
	Level        string    `json:"level"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
	OptTime      time.Time `json:"opt_time" gorm:"index"`
}

// TableName Specify table name
func (WaOperationLog) TableName() string {
	return "wa_operation_log"
}
