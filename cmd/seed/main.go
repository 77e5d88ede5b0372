package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/chatterfix/backend/internal/application/services"
	"github.com/chatterfix/backend/internal/bootstrap"
	"github.com/chatterfix/backend/internal/infrastructure/database"
	"github.com/chatterfix/backend/pkg/constants"
)

// Seeds a demo dataset through the service layer so numbering, events and
// audit rows behave exactly as they do in production. Idempotency comes
// from the unique keys: re-running against a seeded database fails fast on
// the first duplicate, which is fine for a dev tool.
func main() {
	paths := []string{".env", "../.env", "../../.env"}
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			log.Printf("Loaded .env from %s", p)
			break
		}
	}

	db, err := database.GetInstance()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	if err := bootstrap.InitializeSchema(db); err != nil {
		log.Fatalf("failed to initialize schema: %v", err)
	}
	if err := bootstrap.InitializeSystemData(db); err != nil {
		log.Fatalf("failed to initialize system data: %v", err)
	}

	svcMgr := services.NewServiceManager(db, "seed")
	ctx := context.Background()

	log.Println("🌱 Seeding demo data...")

	// Users
	manager, err := svcMgr.Users.CreateUser(ctx, services.CreateUserRequest{
		Name:     "Maria Flores",
		Email:    "maria@chatterfix.local",
		Password: "Demo1234",
		Role:     constants.RoleManager,
	})
	if err != nil {
		log.Fatalf("failed to create manager: %v", err)
	}
	tech, err := svcMgr.Users.CreateUser(ctx, services.CreateUserRequest{
		Name:     "Dan Kowalski",
		Email:    "dan@chatterfix.local",
		Password: "Demo1234",
		Role:     constants.RoleTechnician,
		Phone:    "+1-555-0142",
	})
	if err != nil {
		log.Fatalf("failed to create technician: %v", err)
	}
	if _, err := svcMgr.Users.CreateUser(ctx, services.CreateUserRequest{
		Name:     "Priya Nair",
		Email:    "priya@chatterfix.local",
		Password: "Demo1234",
		Role:     constants.RoleTechnician,
	}); err != nil {
		log.Fatalf("failed to create viewer: %v", err)
	}
	log.Println("   ✅ Users")

	// Assets: a line with two children
	line, err := svcMgr.Assets.CreateAsset(ctx, services.CreateAssetRequest{
		Name:        "Packaging Line 1",
		AssetTag:    "LINE-001",
		Category:    "production",
		Location:    "Building A",
		Criticality: constants.CriticalityHigh,
	})
	if err != nil {
		log.Fatalf("failed to create asset: %v", err)
	}
	pump, err := svcMgr.Assets.CreateAsset(ctx, services.CreateAssetRequest{
		Name:         "Hydraulic Pump 7",
		AssetTag:     "PUMP-007",
		Category:     "hydraulics",
		Location:     "Building A",
		Criticality:  constants.CriticalityHigh,
		ParentID:     &line.ID,
		Manufacturer: "Bosch Rexroth",
		Model:        "A10VSO",
		SerialNumber: "BR-2291-0047",
	})
	if err != nil {
		log.Fatalf("failed to create asset: %v", err)
	}
	conveyor, err := svcMgr.Assets.CreateAsset(ctx, services.CreateAssetRequest{
		Name:        "Conveyor Belt 3",
		AssetTag:    "CONV-003",
		Category:    "conveyance",
		Location:    "Building A",
		Criticality: constants.CriticalityMedium,
		ParentID:    &line.ID,
	})
	if err != nil {
		log.Fatalf("failed to create asset: %v", err)
	}
	log.Println("   ✅ Assets")

	// Suppliers and parts
	supplier, err := svcMgr.Inventory.CreateSupplier(ctx, services.SupplierRequest{
		Name:        "Industrial Parts Co",
		ContactName: "Sales Desk",
		Email:       "orders@industrialparts.example",
		Phone:       "+1-555-0190",
	})
	if err != nil {
		log.Fatalf("failed to create supplier: %v", err)
	}
	if _, err := svcMgr.Inventory.CreatePart(ctx, services.CreatePartRequest{
		PartNumber:  "BELT-V-220",
		Name:        "V-Belt 220mm",
		Category:    "belts",
		Quantity:    12,
		MinQuantity: 4,
		UnitCost:    18.50,
		Location:    "Shelf B2",
		SupplierID:  &supplier.ID,
	}); err != nil {
		log.Fatalf("failed to create part: %v", err)
	}
	if _, err := svcMgr.Inventory.CreatePart(ctx, services.CreatePartRequest{
		PartNumber:  "SEAL-HYD-35",
		Name:        "Hydraulic Seal Kit 35mm",
		Category:    "hydraulics",
		Quantity:    2,
		MinQuantity: 3,
		UnitCost:    64.00,
		Location:    "Shelf C1",
		SupplierID:  &supplier.ID,
	}); err != nil {
		log.Fatalf("failed to create part: %v", err)
	}
	log.Println("   ✅ Parts and suppliers")

	// Work orders, one overdue to give the dashboard something to show
	overdue := time.Now().AddDate(0, 0, -2)
	if _, err := svcMgr.WorkOrders.CreateWorkOrder(ctx, services.CreateWorkOrderRequest{
		Title:       "Replace worn drive belt",
		Description: "Belt on conveyor 3 is fraying at the edge",
		Priority:    constants.PriorityHigh,
		AssetID:     &conveyor.ID,
		AssignedTo:  &tech.ID,
		DueDate:     &overdue,
	}, manager.ID); err != nil {
		log.Fatalf("failed to create work order: %v", err)
	}
	if _, err := svcMgr.WorkOrders.CreateWorkOrder(ctx, services.CreateWorkOrderRequest{
		Title:       "Investigate pump pressure drop",
		Description: "Operators report pressure dips under load",
		Priority:    constants.PriorityMedium,
		AssetID:     &pump.ID,
	}, manager.ID); err != nil {
		log.Fatalf("failed to create work order: %v", err)
	}
	log.Println("   ✅ Work orders")

	// PM schedule: monthly pump inspection, first Monday 06:00
	if _, err := svcMgr.PMScheduler.CreateSchedule(ctx, services.PMScheduleRequest{
		Name:            "Monthly pump inspection",
		AssetID:         &pump.ID,
		CronExpr:        "0 6 1-7 * 1",
		Timezone:        "UTC",
		Priority:        constants.PriorityMedium,
		TaskDescription: "Check seals, fluid level and pressure readings",
		AssignedTo:      &tech.ID,
	}); err != nil {
		log.Fatalf("failed to create pm schedule: %v", err)
	}
	log.Println("   ✅ PM schedules")

	// Escalation rule: critical work sitting unassigned for a shift
	if _, err := svcMgr.Escalation.CreateRule(ctx, services.EscalationRuleRequest{
		Name:       "Unassigned critical work",
		Condition:  `priority == "critical" && !assigned && age_hours > 8`,
		NotifyRole: constants.RoleManager,
	}); err != nil {
		log.Fatalf("failed to create escalation rule: %v", err)
	}
	log.Println("   ✅ Escalation rules")

	log.Println("🌱 Demo data seeded.")
}
