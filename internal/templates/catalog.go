package templates

// catalog is the built-in set of journey blueprints. Step order here is the
// order steps activate in; journeys copy it verbatim at creation time.
var catalog = []Template{
	{
		TemplateID: "kitchen_renovation",
		Title:      "Kitchen Renovation",
		Steps: []StepDefinition{
			{StepKey: "consultation", Name: "Initial Consultation", Description: "Capture goals, constraints, and the current state of the kitchen."},
			{StepKey: "style_discovery", Name: "Style Discovery", Description: "Collect inspiration imagery and narrow down a visual direction."},
			{StepKey: "layout_design", Name: "Layout & Design", Description: "Draft the new layout, work triangle, and cabinetry plan."},
			{StepKey: "product_selection", Name: "Product Selection", Description: "Choose appliances, fixtures, surfaces, and hardware."},
			{StepKey: "cost_estimate", Name: "Cost Estimate", Description: "Assemble a line-item budget from the selected products and scope."},
			{StepKey: "contractor_search", Name: "Contractor Search", Description: "Shortlist and vet contractors able to execute the plan."},
			{StepKey: "final_review", Name: "Final Review", Description: "Walk through the full plan before work begins."},
		},
	},
	{
		TemplateID: "bathroom_refresh",
		Title:      "Bathroom Refresh",
		Steps: []StepDefinition{
			{StepKey: "consultation", Name: "Initial Consultation", Description: "Document the existing bathroom and what should change."},
			{StepKey: "style_discovery", Name: "Style Discovery", Description: "Gather tile, vanity, and lighting inspiration."},
			{StepKey: "product_selection", Name: "Product Selection", Description: "Pick fixtures, tile, and finishes."},
			{StepKey: "cost_estimate", Name: "Cost Estimate", Description: "Price out materials and labor."},
			{StepKey: "contractor_search", Name: "Contractor Search", Description: "Find a plumber-led crew for the refresh."},
		},
	},
	{
		TemplateID: "outdoor_living",
		Title:      "Outdoor Living Space",
		Steps: []StepDefinition{
			{StepKey: "consultation", Name: "Initial Consultation", Description: "Survey the yard and define how the space will be used."},
			{StepKey: "layout_design", Name: "Layout & Design", Description: "Plan decking, seating zones, and planting beds."},
			{StepKey: "product_selection", Name: "Product Selection", Description: "Select decking materials, furniture, and lighting."},
			{StepKey: "cost_estimate", Name: "Cost Estimate", Description: "Budget materials, labor, and permits."},
			{StepKey: "contractor_search", Name: "Contractor Search", Description: "Engage landscapers and deck builders."},
			{StepKey: "final_review", Name: "Final Review", Description: "Confirm the plan against the growing season."},
		},
	},
}
