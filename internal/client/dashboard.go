package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"icu-monitor/internal/domain"
	"icu-monitor/internal/models"
)

// Dashboard 管理端首页数据；加载失败的部分为空
type Dashboard struct {
	Patients     []*domain.Patient
	Staff        []*domain.User
	Departments  []*domain.Department
	Appointments []*domain.Appointment
	Inventory    *models.MonitorInventory
}

// LoadDashboard 并行拉取各部分。部分失败时返回已成功的部分和合并后的错误
func (c *Client) LoadDashboard(ctx context.Context, hospitalID string) (*Dashboard, error) {
	var (
		d    Dashboard
		mu   sync.Mutex
		errs []error
	)
	record := func(section string, err error) {
		if err == nil {
			return
		}
		mu.Lock()
		errs = append(errs, fmt.Errorf("%s: %w", section, err))
		mu.Unlock()
	}

	// 子请求失败不取消其它请求，因此 g.Go 总是返回 nil
	var g errgroup.Group
	g.Go(func() error {
		v, err := c.PatientsByHospital(ctx, hospitalID)
		d.Patients = v
		record("patients", err)
		return nil
	})
	g.Go(func() error {
		v, err := c.Staff(ctx, hospitalID)
		d.Staff = v
		record("staff", err)
		return nil
	})
	g.Go(func() error {
		v, err := c.DepartmentsByHospital(ctx, hospitalID)
		d.Departments = v
		record("departments", err)
		return nil
	})
	g.Go(func() error {
		v, err := c.HospitalAppointments(ctx, hospitalID)
		d.Appointments = v
		record("appointments", err)
		return nil
	})
	g.Go(func() error {
		v, err := c.MonitorInventory(ctx)
		d.Inventory = v
		record("inventory", err)
		return nil
	})
	_ = g.Wait()

	return &d, errors.Join(errs...)
}
