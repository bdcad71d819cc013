package client

import (
	"context"
	"net/http"
	"net/url"

	"icu-monitor/internal/domain"
	"icu-monitor/internal/models"
)

// MonitorInventory 监护仪库存
func (c *Client) MonitorInventory(ctx context.Context) (*models.MonitorInventory, error) {
	var out models.MonitorInventory
	if err := c.call(ctx, http.MethodGet, "/admin/monitor-inventory", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ExportInventory(ctx context.Context) ([]byte, error) {
	return c.download(ctx, "/admin/monitor-inventory/export")
}

func (c *Client) MonitorStatus(ctx context.Context, deviceID string) (*models.MonitorStatus, error) {
	var out models.MonitorStatus
	if err := c.call(ctx, http.MethodGet, "/admin/monitor-status/"+url.PathEscape(deviceID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QuickAdmit 紧急入院，下一步为分配监护仪
func (c *Client) QuickAdmit(ctx context.Context, req models.QuickAdmitRequest) (*models.QuickAdmitResponse, error) {
	var out models.QuickAdmitResponse
	if err := c.call(ctx, http.MethodPost, "/admin/patients/quick-admit", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AssignMonitorAuto(ctx context.Context, req models.AutoAssignRequest) (*models.AssignResponse, error) {
	var out models.AssignResponse
	if err := c.call(ctx, http.MethodPost, "/admin/assign-monitor-auto", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AssignMonitorSpecific(ctx context.Context, req models.ManualAssignRequest) (*models.AssignResponse, error) {
	var out models.AssignResponse
	if err := c.call(ctx, http.MethodPost, "/admin/assign-monitor-specific", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ReassignMonitor(ctx context.Context, req models.ReassignRequest) (*models.ReassignResponse, error) {
	var out models.ReassignResponse
	if err := c.call(ctx, http.MethodPost, "/admin/reassign-monitor", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UnassignedMonitors(ctx context.Context) (*models.UnassignedMonitorsResponse, error) {
	var out models.UnassignedMonitorsResponse
	if err := c.call(ctx, http.MethodGet, "/admin/unassigned-monitors", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MonitorOverview(ctx context.Context) (*models.OverviewResponse, error) {
	var out models.OverviewResponse
	if err := c.call(ctx, http.MethodGet, "/admin/monitor-overview", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ingest 上报一条监护仪数据
func (c *Client) Ingest(ctx context.Context, payload models.MonitorPayload) (*models.IngestResult, error) {
	return c.ingest(ctx, "/monitor-data/ingest", payload)
}

// TestIngest 默认映射，服务端不落库
func (c *Client) TestIngest(ctx context.Context, payload models.MonitorPayload) (*models.IngestResult, error) {
	return c.ingest(ctx, "/monitor-data/test-ingest", payload)
}

func (c *Client) ingest(ctx context.Context, path string, payload models.MonitorPayload) (*models.IngestResult, error) {
	var out models.IngestResult
	if err := c.call(ctx, http.MethodPost, path, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SupportedDevices(ctx context.Context) ([]models.SupportedDevice, error) {
	var out []models.SupportedDevice
	if err := c.call(ctx, http.MethodGet, "/monitor-data/supported-devices", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeviceMappings(ctx context.Context) ([]*domain.DeviceMapping, error) {
	var out []*domain.DeviceMapping
	if err := c.call(ctx, http.MethodGet, "/monitor-data/device-mappings", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateDeviceMapping(ctx context.Context, req models.CreateMappingRequest) (*models.CreatedResponse, error) {
	var out models.CreatedResponse
	if err := c.call(ctx, http.MethodPost, "/monitor-data/device-mappings", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateDeviceAssignment(ctx context.Context, req models.CreateAssignmentRequest) (*models.CreatedResponse, error) {
	var out models.CreatedResponse
	if err := c.call(ctx, http.MethodPost, "/monitor-data/device-assignments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UnassignedDevices 每台未绑定设备的最新读数
func (c *Client) UnassignedDevices(ctx context.Context) ([]*domain.UnassignedReading, error) {
	var out []*domain.UnassignedReading
	if err := c.call(ctx, http.MethodGet, "/monitor-data/unassigned-devices", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
