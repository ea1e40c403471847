package server

import "github.com/BogdanYarotsky/opcua/pkg/ua"

// MonitoredItemService implements monitored-item management on an existing
// subscription.
type MonitoredItemService struct{}

// CreateMonitoredItems adds items to a subscription and reports the revised
// sampling parameters per item.
func (MonitoredItemService) CreateMonitoredItems(server *ServerState, session *SessionState, req *ua.CreateMonitoredItemsRequest) (*ua.CreateMonitoredItemsResponse, error) {
	if err := session.authorize(&req.RequestHeader); err != nil {
		return nil, err
	}
	if len(req.ItemsToCreate) == 0 {
		return nil, ua.BadNothingToDo
	}

	created, ok := session.subscriptions.InsertMonitoredItems(req.SubscriptionID, req.ItemsToCreate)
	if !ok {
		return nil, ua.BadSubscriptionIDInvalid
	}

	results := make([]ua.MonitoredItemCreateResult, len(created))
	for i, item := range created {
		results[i] = ua.MonitoredItemCreateResult{
			StatusCode:              ua.Good,
			MonitoredItemID:         item.ID(),
			RevisedSamplingInterval: item.SamplingInterval(),
			RevisedQueueSize:        item.QueueSize(),
		}
	}

	return &ua.CreateMonitoredItemsResponse{
		ResponseHeader: responseHeader(&req.RequestHeader),
		Results:        results,
	}, nil
}

// ModifyMonitoredItems updates item settings; unknown item ids are answered
// individually and never abort the batch.
func (MonitoredItemService) ModifyMonitoredItems(server *ServerState, session *SessionState, req *ua.ModifyMonitoredItemsRequest) (*ua.ModifyMonitoredItemsResponse, error) {
	if err := session.authorize(&req.RequestHeader); err != nil {
		return nil, err
	}
	if len(req.ItemsToModify) == 0 {
		return nil, ua.BadNothingToDo
	}

	found, ok := session.subscriptions.ModifyMonitoredItems(req.SubscriptionID, req.ItemsToModify)
	if !ok {
		return nil, ua.BadSubscriptionIDInvalid
	}

	sub, _ := session.subscriptions.Get(req.SubscriptionID)
	results := make([]ua.MonitoredItemModifyResult, len(found))
	for i, present := range found {
		if !present {
			results[i] = ua.MonitoredItemModifyResult{StatusCode: ua.BadMonitoredItemIDInvalid}
			continue
		}
		item, _ := sub.Item(req.ItemsToModify[i].MonitoredItemID)
		results[i] = ua.MonitoredItemModifyResult{
			StatusCode:              ua.Good,
			RevisedSamplingInterval: item.SamplingInterval(),
			RevisedQueueSize:        item.QueueSize(),
		}
	}

	return &ua.ModifyMonitoredItemsResponse{
		ResponseHeader: responseHeader(&req.RequestHeader),
		Results:        results,
	}, nil
}

// DeleteMonitoredItems removes items by id, answering each individually.
func (MonitoredItemService) DeleteMonitoredItems(server *ServerState, session *SessionState, req *ua.DeleteMonitoredItemsRequest) (*ua.DeleteMonitoredItemsResponse, error) {
	if err := session.authorize(&req.RequestHeader); err != nil {
		return nil, err
	}
	if len(req.MonitoredItemIDs) == 0 {
		return nil, ua.BadNothingToDo
	}

	found, ok := session.subscriptions.DeleteMonitoredItems(req.SubscriptionID, req.MonitoredItemIDs)
	if !ok {
		return nil, ua.BadSubscriptionIDInvalid
	}

	results := make([]ua.StatusCode, len(found))
	for i, present := range found {
		if !present {
			results[i] = ua.BadMonitoredItemIDInvalid
		}
	}

	return &ua.DeleteMonitoredItemsResponse{
		ResponseHeader: responseHeader(&req.RequestHeader),
		Results:        results,
	}, nil
}
