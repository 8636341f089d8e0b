package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mise/internal/db"
	applog "mise/internal/log"
	"mise/models"
)

const (
	// DemoEmail and DemoPassword sign in to the seeded kitchen.
	DemoEmail    = "chef@mise.app"
	DemoPassword = "mise-en-place"
)

// New returns an in-memory sqlite database seeded with a demo kitchen.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	dsn := fmt.Sprintf("file:mise-mock-%s?mode=memory&cache=shared", uuid.NewString())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}

	if err := seed(ctx, database); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

func float(v float64) *float64 { return &v }

func seed(ctx context.Context, database *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	password, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		kitchen := models.Kitchen{Name: "Demo Bistro", Currency: "EUR"}
		if err := tx.Create(&kitchen).Error; err != nil {
			return err
		}

		user := models.User{
			Name:         "Sam Brigade",
			Email:        DemoEmail,
			PasswordHash: string(password),
			KitchenID:    kitchen.ID,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		flour := models.Ingredient{KitchenID: kitchen.ID, Name: "Flour T55", Supplier: "Moulin Gaston", Category: "Dry goods", PackUnit: "kg", PackSize: float(25), PackPrice: float(23.75), YieldPct: 100, NetUnitCost: float(0.95)}
		butter := models.Ingredient{KitchenID: kitchen.ID, Name: "Butter 82%", Supplier: "Laiterie du Val", Category: "Dairy", PackUnit: "kg", NetUnitCost: float(9.8)}
		milk := models.Ingredient{KitchenID: kitchen.ID, Name: "Whole milk", Supplier: "Laiterie du Val", Category: "Dairy", PackUnit: "l", NetUnitCost: float(1.1)}
		eggs := models.Ingredient{KitchenID: kitchen.ID, Name: "Eggs", Category: "Dairy", PackUnit: "pcs", NetUnitCost: float(0.32)}
		sugar := models.Ingredient{KitchenID: kitchen.ID, Name: "Caster sugar", Category: "Dry goods", PackUnit: "kg", NetUnitCost: float(1.45)}

		ingredients := []*models.Ingredient{&flour, &butter, &milk, &eggs, &sugar}
		for _, ingredient := range ingredients {
			if err := tx.Create(ingredient).Error; err != nil {
				return err
			}
		}

		crepes := models.Recipe{
			KitchenID:         kitchen.ID,
			Name:              "Crêpes Suzette",
			Category:          "Dessert",
			Description:       "Thin crêpes finished with orange butter sauce.",
			Portions:          8,
			Currency:          kitchen.Currency,
			TargetFoodCostPct: float(25),
			SellingPrice:      float(7.5),
		}
		if err := tx.Omit("Lines", "Steps").Create(&crepes).Error; err != nil {
			return err
		}

		lines := []models.RecipeLine{
			{LineType: models.LineTypeGroup, Title: "Batter"},
			{LineType: models.LineTypeIngredient, IngredientID: &flour.ID, Qty: 250, Unit: "g"},
			{LineType: models.LineTypeIngredient, IngredientID: &milk.ID, Qty: 500, Unit: "ml"},
			{LineType: models.LineTypeIngredient, IngredientID: &eggs.ID, Qty: 4, Unit: "pcs"},
			{LineType: models.LineTypeGroup, Title: "Sauce"},
			{LineType: models.LineTypeIngredient, IngredientID: &butter.ID, Qty: 80, Unit: "g"},
			{LineType: models.LineTypeIngredient, IngredientID: &sugar.ID, Qty: 100, Unit: "g", Note: "caramelised"},
		}
		for i := range lines {
			lines[i].KitchenID = kitchen.ID
			lines[i].RecipeID = crepes.ID
			lines[i].SortOrder = (i + 1) * models.SortGap
			if err := tx.Omit("Ingredient").Create(&lines[i]).Error; err != nil {
				return err
			}
		}

		steps := []models.RecipeStep{
			{Instruction: "Whisk flour, eggs and milk into a smooth batter.", TimerSeconds: 0},
			{Instruction: "Rest the batter in the fridge.", TimerSeconds: 1800},
			{Instruction: "Cook thin crêpes in a hot buttered pan.", TimerSeconds: 60},
			{Instruction: "Caramelise sugar with butter and orange juice, then fold the crêpes into the sauce."},
		}
		for i := range steps {
			steps[i].KitchenID = kitchen.ID
			steps[i].RecipeID = crepes.ID
			steps[i].Position = (i + 1) * models.SortGap
			if err := tx.Create(&steps[i]).Error; err != nil {
				return err
			}
		}

		applog.Debug(ctx, "mock database seeded", "kitchen", kitchen.ID)
		return nil
	})
}
