package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Rishika-pasricha/Hack-Hub/internal/app"
	"github.com/Rishika-pasricha/Hack-Hub/internal/models"
	"github.com/Rishika-pasricha/Hack-Hub/internal/service"
)

/* ----------------------------------------------------------------
   DTO types
-----------------------------------------------------------------*/

type BlogRequest struct {
	Title             string         `json:"title"   binding:"required"`
	Content           string         `json:"content"`
	Media             []models.Media `json:"media"   binding:"max=4"`
	MunicipalityEmail string         `json:"municipalityEmail"`
}

type BlogEditRequest struct {
	Title   *string         `json:"title"`
	Content *string         `json:"content"`
	Media   *[]models.Media `json:"media"`
}

type IssueRequest struct {
	Subject           string `json:"subject"     binding:"required"`
	Description       string `json:"description" binding:"required"`
	MunicipalityEmail string `json:"municipalityEmail"`
}

type ProductRequest struct {
	Name        string  `json:"productName"     binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price"           binding:"required,gt=0"`
	Image       string  `json:"productImageUrl" binding:"required"`
	City        string  `json:"city"            binding:"required"`
}

type ProductEditRequest struct {
	Name        *string  `json:"productName"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" binding:"omitempty,gt=0"`
	Image       *string  `json:"productImageUrl"`
	City        *string  `json:"city"`
}

type ReportRequest struct {
	Reason string `json:"reason" binding:"required,oneof=spam fake offensive scam"`
}

/* ================================================================
   BLOGS
================================================================ */

func handleListBlogs(a *app.App, c *gin.Context) {
	list, err := a.Services().Blogs.List(c.Request.Context(), c.Query("municipalityEmail"), identity(c).Email)
	if err != nil {
		respondError(a, c, err, "Failed to load blogs")
		return
	}
	c.JSON(200, list)
}

func handleMyBlogs(a *app.App, c *gin.Context) {
	list, err := a.Services().Blogs.Mine(c.Request.Context(), identity(c).Email)
	if err != nil {
		respondError(a, c, err, "Failed to load blogs")
		return
	}
	c.JSON(200, list)
}

func handleSubmitBlog(a *app.App, c *gin.Context) {
	var in BlogRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}
	p, err := a.Services().Blogs.Submit(c.Request.Context(), identity(c), service.BlogInput{
		Title:             in.Title,
		Content:           in.Content,
		Media:             in.Media,
		MunicipalityEmail: in.MunicipalityEmail,
	})
	if err != nil {
		respondError(a, c, err, "Failed to submit blog")
		return
	}
	c.JSON(201, gin.H{"id": p.ID.Hex(), "message": "Blog submitted for review"})
}

func handleEditBlog(a *app.App, c *gin.Context) {
	var in BlogEditRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}
	p, err := a.Services().Blogs.Edit(c.Request.Context(), identity(c).Email, c.Param("id"), models.BlogEdit{
		Title:   in.Title,
		Content: in.Content,
		Media:   in.Media,
	})
	if err != nil {
		respondError(a, c, err, "Failed to update blog")
		return
	}
	c.JSON(200, models.NewBlogView(p, identity(c).Email))
}

func handleDeleteBlog(a *app.App, c *gin.Context) {
	if err := a.Services().Blogs.Delete(c.Request.Context(), identity(c).Email, c.Param("id")); err != nil {
		respondError(a, c, err, "Failed to delete blog")
		return
	}
	c.JSON(200, gin.H{"message": "Blog deleted"})
}

func handleToggleLike(a *app.App, c *gin.Context) {
	res, err := a.Services().Blogs.ToggleLike(c.Request.Context(), identity(c).Email, c.Param("id"))
	if err != nil {
		respondError(a, c, err, "Failed to update like")
		return
	}
	c.JSON(200, res)
}

func handlePendingBlogs(a *app.App, c *gin.Context) {
	list, err := a.Services().Blogs.Pending(c.Request.Context(), identity(c).Email)
	if err != nil {
		respondError(a, c, err, "Failed to load pending blogs")
		return
	}
	c.JSON(200, list)
}

func handleModerateBlog(a *app.App, c *gin.Context, approve bool) {
	blogs, ctx, muni, id := a.Services().Blogs, c.Request.Context(), identity(c).Email, c.Param("id")

	var (
		p   models.BlogPost
		err error
		msg = "Blog approved"
	)
	if approve {
		p, err = blogs.Approve(ctx, muni, id)
	} else {
		p, err = blogs.Reject(ctx, muni, id)
		msg = "Blog rejected"
	}
	if err != nil {
		respondError(a, c, err, "Failed to update blog status")
		return
	}
	c.JSON(200, gin.H{"message": msg, "blog": models.NewBlogView(p, "")})
}

/* ================================================================
   ISSUES
================================================================ */

func handleSubmitIssue(a *app.App, c *gin.Context) {
	var in IssueRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}
	i, err := a.Services().Issues.Submit(c.Request.Context(), identity(c), service.IssueInput{
		Subject:           in.Subject,
		Description:       in.Description,
		MunicipalityEmail: in.MunicipalityEmail,
	})
	if err != nil {
		respondError(a, c, err, "Failed to submit issue")
		return
	}
	c.JSON(201, gin.H{"id": i.ID.Hex(), "message": "Issue submitted"})
}

func handleMyIssues(a *app.App, c *gin.Context) {
	list, err := a.Services().Issues.Mine(c.Request.Context(), identity(c).Email)
	if err != nil {
		respondError(a, c, err, "Failed to load issues")
		return
	}
	c.JSON(200, list)
}

func handleResolveIssue(a *app.App, c *gin.Context) {
	i, err := a.Services().Issues.Resolve(c.Request.Context(), identity(c).Email, c.Param("id"))
	if err != nil {
		respondError(a, c, err, "Failed to resolve issue")
		return
	}
	c.JSON(200, i)
}

func handleMunicipalityIssues(a *app.App, c *gin.Context) {
	list, err := a.Services().Issues.ForMunicipality(c.Request.Context(), identity(c).Email, c.Query("status"))
	if err != nil {
		respondError(a, c, err, "Failed to load issues")
		return
	}
	c.JSON(200, list)
}

/* ================================================================
   MARKETPLACE
================================================================ */

func handleListProducts(a *app.App, c *gin.Context) {
	list, err := a.Services().Products.List(c.Request.Context(), c.Query("city"))
	if err != nil {
		respondError(a, c, err, "Failed to load products")
		return
	}
	c.JSON(200, list)
}

func handleMyProducts(a *app.App, c *gin.Context) {
	list, err := a.Services().Products.Mine(c.Request.Context(), identity(c).Email)
	if err != nil {
		respondError(a, c, err, "Failed to load products")
		return
	}
	c.JSON(200, list)
}

func handleSubmitProduct(a *app.App, c *gin.Context) {
	var in ProductRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}
	p, err := a.Services().Products.Submit(c.Request.Context(), identity(c), service.ProductInput{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Image:       in.Image,
		City:        in.City,
	})
	if err != nil {
		respondError(a, c, err, "Failed to upload product")
		return
	}
	c.JSON(201, gin.H{"id": p.ID.Hex(), "message": "Product uploaded"})
}

func handleEditProduct(a *app.App, c *gin.Context) {
	var in ProductEditRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}
	p, err := a.Services().Products.Edit(c.Request.Context(), identity(c).Email, c.Param("id"), models.ProductEdit{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Image:       in.Image,
		City:        in.City,
	})
	if err != nil {
		respondError(a, c, err, "Failed to update product")
		return
	}
	c.JSON(200, models.NewProductView(p))
}

func handleDeleteProduct(a *app.App, c *gin.Context) {
	if err := a.Services().Products.Delete(c.Request.Context(), identity(c).Email, c.Param("id")); err != nil {
		respondError(a, c, err, "Failed to delete product")
		return
	}
	c.JSON(200, gin.H{"message": "Product deleted"})
}

func handleReportProduct(a *app.App, c *gin.Context) {
	var in ReportRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(400, gin.H{"error": "Invalid report reason"})
		return
	}
	res, err := a.Services().Products.Report(c.Request.Context(), identity(c).Email, c.Param("id"), in.Reason)
	if err != nil {
		respondError(a, c, err, "Failed to report product")
		return
	}
	c.JSON(200, res)
}
