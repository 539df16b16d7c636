package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shoppingcart/internal/config"
	"shoppingcart/internal/logging"
	cartrepo "shoppingcart/internal/repository/cart"
	cartsvc "shoppingcart/internal/service/cart"
)

const usage = `usage: cartctl [-instance name] <command> [args]

commands:
  show <id>                   print a stored cart with its totals
  destroy <id>                delete a stored cart
  rename <old-id> <new-id>    move a stored cart to another id
  expire <id> [-ttl seconds]  set the stored cart's expiry
  orders drain <key>          read and remove every queued order
  orders peek <key>           read queued orders without removing them
  orders trim <key> [-n N]    drop the first N queued orders
`

func main() {
	var instance string
	flag.StringVar(&instance, "instance", cartsvc.DefaultInstanceName, "Cart instance, e.g. wishlist")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger, err := logging.New(logging.Options{Service: "cartctl", Env: cfg.Env, Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	repo, closeRepo, err := cartrepo.OpenInstrumented(ctx, cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal("open cart repository", zap.String("backend", cfg.Repository), zap.Error(err))
	}
	defer closeRepo()

	app := &cli{
		factory:   cartsvc.NewFactory(repo, logger),
		instance:  instance,
		cartTTL:   cfg.CartTTL,
		ordersTTL: cfg.OrdersTTL,
	}
	if err := app.run(ctx, flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		logger.Fatal("command failed", zap.String("command", flag.Arg(0)), zap.Error(err))
	}
}

var errUsage = errors.New("usage")

type cli struct {
	factory   *cartsvc.Factory
	instance  string
	cartTTL   time.Duration
	ordersTTL time.Duration
	out       *json.Encoder
}

func (c *cli) run(ctx context.Context, args []string) error {
	if c.out == nil {
		c.out = json.NewEncoder(os.Stdout)
		c.out.SetIndent("", "  ")
	}
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "show":
		if len(rest) != 1 {
			return errUsage
		}
		cart, err := c.factory.Open(ctx, rest[0], c.instance)
		if err != nil {
			return err
		}
		return c.out.Encode(summarize(rest[0], cart))

	case "destroy":
		if len(rest) != 1 {
			return errUsage
		}
		return c.factory.New(c.instance).Destroy(ctx, rest[0])

	case "rename":
		if len(rest) != 2 {
			return errUsage
		}
		return c.factory.New(c.instance).RenameCart(ctx, rest[0], rest[1])

	case "expire":
		fs := flag.NewFlagSet("expire", flag.ContinueOnError)
		seconds := fs.Int("ttl", int(c.cartTTL/time.Second), "Expiry in seconds")
		if len(rest) < 1 {
			return errUsage
		}
		if err := fs.Parse(rest[1:]); err != nil {
			return errUsage
		}
		return c.factory.New(c.instance).SetCartExpireTime(ctx, rest[0], time.Duration(*seconds)*time.Second)

	case "orders":
		return c.orders(ctx, rest)

	default:
		return errUsage
	}
}

func (c *cli) orders(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	action, key := args[0], args[1]
	cart := c.factory.New(c.instance)

	switch action {
	case "drain":
		orders, err := cart.GetOrders(ctx, key, c.ordersTTL)
		if err != nil {
			return err
		}
		return c.out.Encode(nonNil(orders))

	case "peek":
		orders, err := cart.GetAndKeepOrders(ctx, key, c.ordersTTL)
		if err != nil {
			return err
		}
		return c.out.Encode(nonNil(orders))

	case "trim":
		fs := flag.NewFlagSet("trim", flag.ContinueOnError)
		n := fs.Int("n", 1, "Number of orders to drop")
		if err := fs.Parse(args[2:]); err != nil {
			return errUsage
		}
		return cart.DeleteOrders(ctx, key, *n, c.ordersTTL)

	default:
		return errUsage
	}
}

func nonNil(orders []map[string]any) []map[string]any {
	if orders == nil {
		return []map[string]any{}
	}
	return orders
}

type lineView struct {
	UniqueID string          `json:"uniqueId"`
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
	Options  map[string]any  `json:"options,omitempty"`
}

type couponView struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

type cartView struct {
	ID              string          `json:"id"`
	Instance        string          `json:"instance"`
	Lines           []lineView      `json:"lines"`
	Coupons         []couponView    `json:"coupons"`
	StoreInfo       map[string]any  `json:"storeInfo"`
	DeliveryInfo    map[string]any  `json:"deliveryInfo"`
	Params          map[string]any  `json:"params"`
	Fees            map[string]any  `json:"fees"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	TotalTax        decimal.Decimal `json:"totalTax"`
	SubtotalWithTax decimal.Decimal `json:"subtotalWithTax"`
	FeesAmount      decimal.Decimal `json:"feesAmount"`
	Tips            decimal.Decimal `json:"tips"`
	CouponsAmount   decimal.Decimal `json:"couponsAmount"`
	Amount          decimal.Decimal `json:"amount"`
}

func summarize(id string, cart *cartsvc.Cart) cartView {
	view := cartView{
		ID:              id,
		Instance:        cart.CurrentInstance(),
		Lines:           []lineView{},
		Coupons:         []couponView{},
		StoreInfo:       cart.StoreInfo(),
		DeliveryInfo:    cart.DeliveryInfo(),
		Params:          cart.Params(),
		Fees:            cart.FeesAmountList(),
		Subtotal:        cart.Subtotal(),
		TotalTax:        cart.TotalTax(),
		SubtotalWithTax: cart.SubtotalWithTax(),
		FeesAmount:      cart.FeesAmount(),
		Tips:            cart.Tips(),
		CouponsAmount:   cart.CouponsAmount(),
		Amount:          cart.Amount(),
	}
	for _, item := range cart.Content() {
		view.Lines = append(view.Lines, lineView{
			UniqueID: item.UniqueID(),
			ID:       item.ID(),
			Name:     item.Name(),
			Price:    item.Price(),
			Quantity: item.Quantity(),
			Tax:      item.Tax(),
			Total:    item.ItemWithOptionTotal(),
			Options:  item.Options(),
		})
	}
	for _, coupon := range cart.Coupons() {
		info := coupon.Info()
		view.Coupons = append(view.Coupons, couponView{Type: string(coupon.Kind()), ID: info.ID, Name: info.Name})
	}
	return view
}
