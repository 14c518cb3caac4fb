package model

import "time"

// UnnamedDevice is the sentinel device name applied by a machine reset.
const UnnamedDevice = "UNNAMED"

// DefaultDeviceName is used when a claiming user does not supply a name.
const DefaultDeviceName = "MY-DEVICE"

// Machine represents a registered breathing-measurement device.
// OwnerID is nullable: a machine may exist unowned (post-reset or
// pre-registration) and becomes claimable.
type Machine struct {
	ID           string    `gorm:"type:char(36);primaryKey" json:"id"`
	DeviceName   string    `gorm:"column:device_name;uniqueIndex;size:100;not null" json:"deviceName"`
	Model        string    `gorm:"uniqueIndex;size:100;not null" json:"model"`
	OwnerID      *string   `gorm:"column:owner_id;type:char(36);index" json:"ownerId"`
	RegisteredAt time.Time `gorm:"column:registered_at;autoCreateTime" json:"registeredAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updatedAt"`

	// Associations
	Owner   *User    `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Records []Record `gorm:"foreignKey:MachineID" json:"-"`
}

// OwnedBy reports whether the machine is owned by the given user id.
func (m *Machine) OwnedBy(userID string) bool {
	return m.OwnerID != nil && *m.OwnerID == userID
}
