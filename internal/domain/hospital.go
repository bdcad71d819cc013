package domain

import "time"

// Hospital 医院（对应 hospitals 表），ID 形如 HOSP042
type Hospital struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   *string   `db:"address" json:"address,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	AdminUID  string    `db:"admin_uid" json:"admin_uid"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// HospitalUpdate 部分更新
type HospitalUpdate struct {
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
}

func (p HospitalUpdate) Apply(h *Hospital) {
	if p.Name != nil {
		h.Name = *p.Name
	}
	if p.Address != nil {
		h.Address = p.Address
	}
	if p.Phone != nil {
		h.Phone = p.Phone
	}
	if p.Email != nil {
		h.Email = p.Email
	}
}

// Department 科室（对应 departments 表）
type Department struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	HeadUID     *string   `db:"head_uid" json:"head_uid,omitempty"`
	HospitalID  string    `db:"hospital_id" json:"hospital_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// DepartmentUpdate 部分更新
type DepartmentUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	HeadUID     *string `json:"head_uid,omitempty"`
}

func (p DepartmentUpdate) Apply(d *Department) {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Description != nil {
		d.Description = p.Description
	}
	if p.HeadUID != nil {
		d.HeadUID = p.HeadUID
	}
}
