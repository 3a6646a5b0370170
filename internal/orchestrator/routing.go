package orchestrator

import (
	"strings"

	"github.com/wearforce/convo-core/internal/nlu/entity"
)

// toolIntents is the set of intents routed straight to tool selection.
var toolIntents = map[string]bool{
	"create_contact": true, "update_contact": true, "search_contact": true,
	"create_order": true, "update_order": true, "search_order": true,
	"get_inventory": true, "update_inventory": true,
	"generate_report":  true,
	"schedule_meeting": true,
}

// businessEntityLabels is the set of entity labels that, combined with an
// action verb, also route to tools even without a recognized intent.
var businessEntityLabels = map[string]bool{
	"EMPLOYEE_ID": true, "CUSTOMER_ID": true, "ORDER_ID": true, "PRODUCT_CODE": true,
	"INVOICE_NUMBER": true, "PURCHASE_ORDER": true, "DELIVERY_DATE": true,
	"MEETING_TIME": true, "DEPARTMENT": true, "JOB_TITLE": true,
	"OFFICE_LOCATION": true, "TICKET_ID": true, "PROJECT_CODE": true,
}

var actionVerbs = []string{"create", "update", "delete", "modify", "change"}

var ragKeywords = []string{
	"how", "what", "why", "when", "where", "explain", "tell me", "information",
	"details", "documentation", "guide", "help", "procedure", "process", "policy",
	"workflow",
}

var crmIntents = map[string]bool{"create_contact": true, "update_contact": true, "search_contact": true}
var erpIntents = map[string]bool{
	"create_order": true, "update_order": true, "search_order": true,
	"get_inventory": true, "update_inventory": true,
}

// toolParamLabels maps an entity label to the tool parameter name it fills.
var toolParamLabels = map[string]string{
	"PERSON": "name", "EMAIL": "email", "PHONE": "phone", "ORGANIZATION": "company",
	"PRODUCT": "product", "MONEY": "amount", "DATE": "date", "TIME": "time",
	"QUANTITY": "quantity",
}

const maxRetries = 3

// route implements the deterministic routing decision out of
// CONTEXT_ANALYSIS.
func (s *State) route() RoutingDecision {
	if s.ErrorCount > maxRetries {
		return RouteError
	}
	if toolIntents[s.Intent] {
		return RouteTools
	}
	if hasBusinessEntity(s.Entities) && hasActionVerb(s.Text) {
		return RouteTools
	}
	if hasRAGKeyword(s.Text) && s.Intent != "greeting" && s.Intent != "help" && wordCount(s.Text) > 3 {
		return RouteRAG
	}
	return RouteDirect
}

func hasBusinessEntity(entities []entity.Entity) bool {
	for _, e := range entities {
		if businessEntityLabels[e.Label] {
			return true
		}
	}
	return false
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

func hasActionVerb(text string) bool {
	lower := strings.ToLower(text)
	for _, v := range actionVerbs {
		if strings.Contains(lower, v) {
			return true
		}
	}
	return false
}

func hasRAGKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range ragKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// selectAgent picks the response-generation persona.
func selectAgent(intent string, hasBusinessEntities bool) Agent {
	if crmIntents[intent] {
		return AgentCRM
	}
	if erpIntents[intent] {
		return AgentERP
	}
	if hasBusinessEntities {
		return AgentTaskCoordinator
	}
	return AgentGeneral
}
