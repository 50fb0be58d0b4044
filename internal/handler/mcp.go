// MCP transport handler using the official MCP Go SDK. Exposes the catalog
// and cart to agent clients as tools with the same semantics as the REST
// surface.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"hoststore/internal/catalog"
	"hoststore/internal/model"
)

// mcpVisitorFallback keys agent carts that did not provide a visitor ID.
const mcpVisitorFallback = "mcp-agent"

// === Tool Input/Output Types ===

// ListProductsInput is the input schema for list_products.
type ListProductsInput struct {
	Category string `json:"category,omitempty" jsonschema:"tier category filter (cloud, gaming, streaming); empty lists the fixed products"`
}

// ListProductsOutput carries the catalog listing.
type ListProductsOutput struct {
	Products []model.CartItem `json:"products"`
}

// CartInput identifies whose cart to operate on.
type CartInput struct {
	VisitorID string `json:"visitor_id,omitempty" jsonschema:"visitor identity; defaults to a shared agent cart"`
}

// AddToCartInput is the input schema for add_to_cart.
type AddToCartInput struct {
	VisitorID string `json:"visitor_id,omitempty" jsonschema:"visitor identity; defaults to a shared agent cart"`
	ProductID string `json:"product_id" jsonschema:"product or tier ID to add,required"`
}

// RemoveFromCartInput is the input schema for remove_from_cart.
type RemoveFromCartInput struct {
	VisitorID string `json:"visitor_id,omitempty" jsonschema:"visitor identity; defaults to a shared agent cart"`
	ProductID string `json:"product_id" jsonschema:"product or tier ID to remove,required"`
}

// CartOutput is the cart snapshot returned by cart tools.
type CartOutput struct {
	Items []model.CartItem `json:"items"`
	Count int              `json:"count"`
	Total float64          `json:"total"`
}

// NewMCPServer creates an MCP server with the storefront tools registered.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "hoststore",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: h.storeName + " - hosting storefront. " +
				"Use these tools to browse products and manage a cart.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_products",
		Description: "List purchasable products. Pass a category (cloud, gaming, streaming) for server tiers, or omit it for the fixed product line.",
	}, h.mcpListProducts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "view_cart",
		Description: "View the current cart contents with count and total.",
	}, h.mcpViewCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_cart",
		Description: "Add a product or tier to the cart by ID. Adding an ID already in the cart is a no-op.",
	}, h.mcpAddToCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_from_cart",
		Description: "Remove a product or tier from the cart by ID.",
	}, h.mcpRemoveFromCart)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your router.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpListProducts(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListProductsInput,
) (*mcp.CallToolResult, *ListProductsOutput, error) {
	out := &ListProductsOutput{Products: []model.CartItem{}}

	if input.Category == "" {
		for _, p := range catalog.Products() {
			out.Products = append(out.Products, p.CartItem())
		}
		return nil, out, nil
	}

	c := catalog.Category(input.Category)
	if !c.Valid() {
		return nil, nil, h.mcpError(model.NewValidationError("category",
			"must be one of cloud, gaming, streaming"))
	}
	for _, t := range catalog.GenerateTiers(c) {
		out.Products = append(out.Products, t.CartItem())
	}
	return nil, out, nil
}

func (h *Handler) mcpViewCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CartInput,
) (*mcp.CallToolResult, *CartOutput, error) {
	c, err := h.carts.Get(ctx, mcpVisitor(input.VisitorID))
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, toCartOutput(c.Items, c.Count(), c.Total()), nil
}

func (h *Handler) mcpAddToCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AddToCartInput,
) (*mcp.CallToolResult, *CartOutput, error) {
	if input.ProductID == "" {
		return nil, nil, h.mcpError(model.NewValidationError("product_id", "required"))
	}

	item, ok := resolveCatalogItem(input.ProductID)
	if !ok {
		return nil, nil, h.mcpError(model.NewNotFoundError("product"))
	}

	c, _, err := h.carts.Add(ctx, mcpVisitor(input.VisitorID), item)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, toCartOutput(c.Items, c.Count(), c.Total()), nil
}

func (h *Handler) mcpRemoveFromCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RemoveFromCartInput,
) (*mcp.CallToolResult, *CartOutput, error) {
	if input.ProductID == "" {
		return nil, nil, h.mcpError(model.NewValidationError("product_id", "required"))
	}

	c, err := h.carts.Remove(ctx, mcpVisitor(input.VisitorID), input.ProductID)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, toCartOutput(c.Items, c.Count(), c.Total()), nil
}

func mcpVisitor(visitorID string) string {
	if visitorID == "" {
		return mcpVisitorFallback
	}
	return visitorID
}

func toCartOutput(items []model.CartItem, count int, total float64) *CartOutput {
	if items == nil {
		items = []model.CartItem{}
	}
	return &CartOutput{Items: items, Count: count, Total: total}
}

// mcpError converts domain errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
