package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/bloombuddy/internal/server/models"
	"github.com/dmitrijs2005/bloombuddy/internal/server/services"
)

type addIdentifiedRequest struct {
	Identification   *services.IdentifyResult `json:"identification"`
	UploadedImageURL string                   `json:"uploadedImageUrl"`
}

type setImageRequest struct {
	Key string `json:"key"`
}

type presignRequest struct {
	ContentType string `json:"contentType"`
}

func (s *Server) listPlants(c echo.Context) error {
	plants, err := s.deps.Plants.List(c.Request().Context(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plants)
}

func (s *Server) getPlant(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	p, err := s.deps.Plants.Get(c.Request().Context(), userID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) createPlant(c echo.Context) error {
	var in services.NewPlant
	if err := bind(c, &in); err != nil {
		return err
	}
	p, err := s.deps.Plants.Create(c.Request().Context(), userID(c), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) updatePlant(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var patch models.PlantPatch
	if err := bind(c, &patch); err != nil {
		return err
	}
	p, err := s.deps.Plants.Update(c.Request().Context(), userID(c), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) deletePlant(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.deps.Plants.Delete(c.Request().Context(), userID(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// uploadPlantImage takes a multipart form with the photo in field "image".
func (s *Server) uploadPlantImage(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	img, err := readImage(c)
	if err != nil {
		return err
	}
	defer img.Close()

	p, err := s.deps.Plants.UploadImage(c.Request().Context(), userID(c), id, img.filename, img.contentType, img, img.size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// setPlantImage attaches a photo uploaded through a presigned URL.
func (s *Server) setPlantImage(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req setImageRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := s.deps.Plants.SetImage(c.Request().Context(), userID(c), id, req.Key)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) addIdentified(c echo.Context) error {
	var req addIdentifiedRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := s.deps.Plants.AddIdentified(c.Request().Context(), userID(c), req.Identification, req.UploadedImageURL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) presignUpload(c echo.Context) error {
	var req presignRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	up, err := s.deps.Plants.PresignUpload(c.Request().Context(), userID(c), req.ContentType)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, up)
}
