package httpapi

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/bloombuddy/internal/common"
	"github.com/dmitrijs2005/bloombuddy/internal/server/services"
)

const imageField = "image"

type identifyRequest struct {
	Image string `json:"image"`
}

type identifyResponse struct {
	Result *services.IdentifyResult `json:"result"`
	// ImageURL is where the uploaded photo was stored, for a later
	// "add to my plants".
	ImageURL string `json:"imageUrl,omitempty"`
}

type uploadedImage struct {
	multipart.File
	filename    string
	contentType string
	size        int64
}

// readImage opens the "image" part of a multipart request.
func readImage(c echo.Context) (*uploadedImage, error) {
	fh, err := c.FormFile(imageField)
	if err != nil {
		return nil, fmt.Errorf("%w: multipart field %q is required", common.ErrorValidation, imageField)
	}
	if fh.Size > maxImageBytes {
		return nil, fmt.Errorf("%w: image larger than %d bytes", common.ErrorValidation, maxImageBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	return &uploadedImage{
		File:        f,
		filename:    fh.Filename,
		contentType: fh.Header.Get(echo.HeaderContentType),
		size:        fh.Size,
	}, nil
}

// identify accepts either a multipart photo or {"image": "<base64 or data URL>"}.
// Multipart photos are also stored so the result can be saved with them.
func (s *Server) identify(c echo.Context) error {
	ctx := c.Request().Context()

	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		var req identifyRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		res, err := s.deps.Identify.Identify(ctx, req.Image)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, identifyResponse{Result: res})
	}

	img, err := readImage(c)
	if err != nil {
		return err
	}
	defer img.Close()

	data, err := io.ReadAll(io.LimitReader(img, maxImageBytes))
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	res, err := s.deps.Identify.IdentifyBytes(ctx, data)
	if err != nil {
		return err
	}

	resp := identifyResponse{Result: res}
	obj, err := s.deps.Plants.UploadPhoto(ctx, userID(c), img.filename, img.contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		s.logger.Warn(ctx, "storing identified photo failed", "error", err)
	} else {
		resp.ImageURL = obj.URL
	}
	return c.JSON(http.StatusOK, resp)
}
